package provision

import "errors"

var (
	ErrConfirmationMismatch = errors.New("confirmation does not match schema name")
	ErrProvisionFailed      = errors.New("tenant provisioning failed")
	ErrDeprovisionFailed    = errors.New("tenant deprovisioning failed")
	ErrSyncFailed           = errors.New("schema sync failed")
	ErrMediaCleanupFailed   = errors.New("tenant media cleanup failed")
	ErrInvalidFixtures      = errors.New("invalid fixtures")
)
