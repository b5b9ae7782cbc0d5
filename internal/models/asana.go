package models

// User is the authenticated Asana user behind the bearer token.
type User struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

// Workspace is a top-level Asana organization or workspace.
type Workspace struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

// Team is a group within a workspace that the current user belongs to.
type Team struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

// ProjectStatus is the current status update attached to a project.
type ProjectStatus struct {
	Color string `json:"color"`
}

// Project is a unit of work within a team. List calls only populate
// GID and Name; the remaining fields come from the detail call and are
// nil when the API returns null.
type Project struct {
	GID           string
	Name          string
	Owner         *User
	CurrentStatus *ProjectStatus
	StartOn       *string
	DueDate       *string
}

// NoneLabel is written in place of an absent status or date.
const NoneLabel = "None"

// StatusLabel maps the status color of a project to its display label.
// Unknown colors and a missing status map to NoneLabel.
func (p *Project) StatusLabel() string {
	if p.CurrentStatus == nil {
		return NoneLabel
	}
	switch p.CurrentStatus.Color {
	case "green":
		return "On track"
	case "yellow":
		return "At risk"
	case "red":
		return "Off track"
	case "blue":
		return "On hold"
	default:
		return NoneLabel
	}
}

// OwnerName returns the owner's name, or "" for unowned projects.
func (p *Project) OwnerName() string {
	if p.Owner == nil {
		return ""
	}
	return p.Owner.Name
}

func orNone(s *string) string {
	if s == nil {
		return NoneLabel
	}
	return *s
}

// ExportRow is the flattened record written per project.
type ExportRow struct {
	Workspace string
	Team      string
	ProjectID string
	Project   string
	Status    string
	Owner     string
	StartDate string
	DueDate   string
}

// NewExportRow flattens a fully fetched project into a row under the
// given workspace and team.
func NewExportRow(ws Workspace, team Team, p *Project) ExportRow {
	return ExportRow{
		Workspace: ws.Name,
		Team:      team.Name,
		ProjectID: p.GID,
		Project:   p.Name,
		Status:    p.StatusLabel(),
		Owner:     p.OwnerName(),
		StartDate: orNone(p.StartOn),
		DueDate:   orNone(p.DueDate),
	}
}

// Fields returns the row values in column order.
func (r ExportRow) Fields() []string {
	return []string{r.Workspace, r.Team, r.ProjectID, r.Project, r.Status, r.Owner, r.StartDate, r.DueDate}
}
