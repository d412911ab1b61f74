package metrics

const OutcomeCompleted = "completed"
const OutcomeFailed = "failed"
const OutcomeCanceled = "canceled"
const OutcomeRejected = "rejected"

const HeartbeatValid = "valid"
const HeartbeatInvalid = "invalid"
const HeartbeatUnreachable = "unreachable"
