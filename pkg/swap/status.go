package swap

// Status is the executor's progress through one swap attempt. States are
// emitted before the step they name starts and are never re-entered; a
// failed attempt is discarded whole and a new attempt starts from
// StatusIdle with a fresh quote.
type Status string

const (
	StatusIdle                  Status = "idle"
	StatusCheckingTrustline     Status = "checking_trustline"
	StatusProvisioningTrustline Status = "provisioning_trustline"
	StatusCheckingAffordability Status = "checking_affordability"
	StatusBuildingPlan          Status = "building_plan"
	StatusAwaitingSignatures    Status = "awaiting_signatures"
	StatusSubmittingSwap        Status = "submitting_swap"
	StatusSubmittingFees        Status = "submitting_fees"
	StatusDone                  Status = "done"
	StatusFailed                Status = "failed"
)

// StatusFunc receives status transitions. A nil StatusFunc is allowed.
type StatusFunc func(Status)
