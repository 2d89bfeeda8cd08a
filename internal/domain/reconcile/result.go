package reconcile

// ReprocessResult tallies the outcome of one operator-triggered reprocessing
// pass. The four counters are mutually exclusive: every selected order lands
// in exactly one, so Total always equals the selection size.
type ReprocessResult struct {
	// Processed counts orders converted into a shipment by this pass
	Processed int
	// AlreadyProcessed counts orders that already had a shipment
	AlreadyProcessed int
	// NotMatching counts orders whose fresh evaluation failed
	NotMatching int
	// Errored counts orders whose conversion call failed
	Errored int
}

// Total returns the number of orders accounted for by the tally
func (r ReprocessResult) Total() int {
	return r.Processed + r.AlreadyProcessed + r.NotMatching + r.Errored
}
