package utils

type Metric struct {
	DatabaseRead  chan float64
	ExpandLatency chan float64
	AuditWarning  chan string
}

func NewMetric() *Metric {
	return &Metric{
		DatabaseRead:  make(chan float64),
		ExpandLatency: make(chan float64),
		AuditWarning:  make(chan string),
	}
}
