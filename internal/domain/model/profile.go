package model

// WorkerProfile aggregates everything known about one worker.
// OverallScore and OverallStatus are derived and recomputed on every change.
type WorkerProfile struct {
	ID              int64               `json:"id,omitempty"`
	Name            string              `json:"name"`
	Ratings         []Rating            `json:"ratings"`
	CategoryHistory map[string][]Rating `json:"categoryHistory"`
	JobCategories   []string            `json:"jobCategories"`
	Strengths       []string            `json:"strengths"`
	Weaknesses      []string            `json:"weaknesses"`
	OverallScore    float64             `json:"overallScore"`
	OverallStatus   Status              `json:"overallStatus"`
}
