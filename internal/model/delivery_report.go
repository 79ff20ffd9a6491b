// internal/model/delivery_report.go
package model

import "time"

const (
	TargetAll   = "all"
	TargetTest  = "test"
	TargetOne   = "one"
	TargetBatch = "batch"
)

// DeliveryReport summarizes the most recent dispatch. Only one report is
// kept; each dispatch overwrites the previous one.
type DeliveryReport struct {
	Time     time.Time         `json:"time"`
	PostID   int               `json:"post_id"`
	Subject  string            `json:"subject"`
	Total    int               `json:"total"`
	OK       int               `json:"ok"`
	Fail     int               `json:"fail"`
	FailList map[string]string `json:"fail_list"` // email -> error
	Target   string            `json:"target"`    // all, test, one, batch
}

// HadEffect reports whether at least one recipient was reached. A partial
// failure still counts as a qualified success.
func (r *DeliveryReport) HadEffect() bool {
	return r.OK > 0
}
