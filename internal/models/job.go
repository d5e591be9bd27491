package models

type JobRoleType string

const (
	RoleFrontend  JobRoleType = "frontend"
	RoleBackend   JobRoleType = "backend"
	RoleFullstack JobRoleType = "fullstack"
	RoleDevops    JobRoleType = "devops"
	RoleMobile    JobRoleType = "mobile"
	RoleData      JobRoleType = "data"
)

var roleLabels = map[JobRoleType]string{
	RoleFrontend:  "Frontend",
	RoleBackend:   "Backend",
	RoleFullstack: "Full-Stack",
	RoleDevops:    "DevOps",
	RoleMobile:    "Mobile",
	RoleData:      "Data",
}

// Label returns the display name of the role, or "" for an unknown category.
func (r JobRoleType) Label() string {
	return roleLabels[r]
}

type JobPosting struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Company      string      `json:"company"`
	Location     string      `json:"location"`
	RoleType     JobRoleType `json:"roleType"`
	Requirements []string    `json:"requirements"`
	Preferred    []string    `json:"preferred"`
	Description  string      `json:"description"`
}
