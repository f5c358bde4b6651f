package metrics

import "sync/atomic"

type Counters struct {
	PaymentsInitiated     uint64
	InitiationsFailed     uint64
	VerificationsRun      uint64
	VerificationsRejected uint64
	PersistFailures       uint64
	PaymentsSettled       uint64
}

func (c *Counters) IncInitiated() {
	atomic.AddUint64(&c.PaymentsInitiated, 1)
}

func (c *Counters) IncInitiationFailed() {
	atomic.AddUint64(&c.InitiationsFailed, 1)
}

func (c *Counters) IncVerification() {
	atomic.AddUint64(&c.VerificationsRun, 1)
}

func (c *Counters) IncRejected() {
	atomic.AddUint64(&c.VerificationsRejected, 1)
}

func (c *Counters) IncPersistFailure() {
	atomic.AddUint64(&c.PersistFailures, 1)
}

func (c *Counters) IncSettled() {
	atomic.AddUint64(&c.PaymentsSettled, 1)
}

// Snapshot returns a consistent-enough copy for reporting.
func (c *Counters) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"payments_initiated":     atomic.LoadUint64(&c.PaymentsInitiated),
		"initiations_failed":     atomic.LoadUint64(&c.InitiationsFailed),
		"verifications_run":      atomic.LoadUint64(&c.VerificationsRun),
		"verifications_rejected": atomic.LoadUint64(&c.VerificationsRejected),
		"persist_failures":       atomic.LoadUint64(&c.PersistFailures),
		"payments_settled":       atomic.LoadUint64(&c.PaymentsSettled),
	}
}
