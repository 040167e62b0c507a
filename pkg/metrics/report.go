package metrics

import "fmt"

// Report is a snapshot of the fairness statistics of one dataset.
type Report struct {
	MeanDifference        float64 `json:"mean_difference"`
	DisparateImpact       float64 `json:"disparate_impact"`
	PrivilegedBaseRate    float64 `json:"privileged_base_rate"`
	UnprivilegedBaseRate  float64 `json:"unprivileged_base_rate"`
	PrivilegedInstances   float64 `json:"privileged_instances"`
	UnprivilegedInstances float64 `json:"unprivileged_instances"`
	TotalInstances        float64 `json:"total_instances"`
	Privileged            Group   `json:"privileged"`
	Unprivileged          Group   `json:"unprivileged"`
}

// Lines renders the two headline statistics with six decimal places.
func (r *Report) Lines() []string {
	return []string{
		fmt.Sprintf("mean_difference = %.6f", r.MeanDifference),
		fmt.Sprintf("disparate_impact = %.6f", r.DisparateImpact),
	}
}

func (r *Report) String() string {
	return fmt.Sprintf(
		"mean_difference=%.6f disparate_impact=%.6f",
		r.MeanDifference, r.DisparateImpact,
	)
}
