package asana

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/joescharf/asana-dump/internal/models"
)

// Me returns the user that owns the bearer token.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	const path = "users/me"
	d, err := c.data(ctx, path)
	if err != nil {
		return nil, err
	}
	return parseUser(d, path)
}

// Workspaces lists the workspaces visible to the current user, in API order.
func (c *Client) Workspaces(ctx context.Context) ([]models.Workspace, error) {
	const path = "workspaces"
	items, err := c.list(ctx, path)
	if err != nil {
		return nil, err
	}
	out := make([]models.Workspace, 0, len(items))
	for _, it := range items {
		gid, name, err := gidAndName(it, path)
		if err != nil {
			return nil, err
		}
		out = append(out, models.Workspace{GID: gid, Name: name})
	}
	return out, nil
}

// Teams lists the teams userGID belongs to within workspaceGID.
func (c *Client) Teams(ctx context.Context, userGID, workspaceGID string) ([]models.Team, error) {
	path := fmt.Sprintf("users/%s/teams?organization=%s", userGID, workspaceGID)
	items, err := c.list(ctx, path)
	if err != nil {
		return nil, err
	}
	out := make([]models.Team, 0, len(items))
	for _, it := range items {
		gid, name, err := gidAndName(it, path)
		if err != nil {
			return nil, err
		}
		out = append(out, models.Team{GID: gid, Name: name})
	}
	return out, nil
}

// Projects lists the unarchived projects of a team. Only GID and Name
// are populated.
func (c *Client) Projects(ctx context.Context, teamGID string) ([]models.Project, error) {
	path := fmt.Sprintf("projects?team=%s&archived=false", teamGID)
	items, err := c.list(ctx, path)
	if err != nil {
		return nil, err
	}
	out := make([]models.Project, 0, len(items))
	for _, it := range items {
		gid, name, err := gidAndName(it, path)
		if err != nil {
			return nil, err
		}
		out = append(out, models.Project{GID: gid, Name: name})
	}
	return out, nil
}

// Project fetches the full record of a project. The owner, current_status,
// start_on and due_date keys must be present; each may be null.
func (c *Client) Project(ctx context.Context, gid string) (*models.Project, error) {
	path := "projects/" + gid
	d, err := c.data(ctx, path)
	if err != nil {
		return nil, err
	}

	p := &models.Project{
		GID:  d.Get("gid").String(),
		Name: d.Get("name").String(),
	}
	if p.GID == "" {
		p.GID = gid
	}

	owner, err := field(d, path, "owner")
	if err != nil {
		return nil, err
	}
	if owner.Type != gjson.Null {
		name, err := stringField(owner, path, "name")
		if err != nil {
			return nil, &ShapeError{Path: path, Key: "owner.name"}
		}
		p.Owner = &models.User{GID: owner.Get("gid").String(), Name: name}
	}

	status, err := field(d, path, "current_status")
	if err != nil {
		return nil, err
	}
	if status.Type != gjson.Null {
		color, err := stringField(status, path, "color")
		if err != nil {
			return nil, &ShapeError{Path: path, Key: "current_status.color"}
		}
		p.CurrentStatus = &models.ProjectStatus{Color: color}
	}

	if p.StartOn, err = nullableString(d, path, "start_on"); err != nil {
		return nil, err
	}
	if p.DueDate, err = nullableString(d, path, "due_date"); err != nil {
		return nil, err
	}
	return p, nil
}

func parseUser(r gjson.Result, path string) (*models.User, error) {
	gid, name, err := gidAndName(r, path)
	if err != nil {
		return nil, err
	}
	return &models.User{GID: gid, Name: name}, nil
}

func gidAndName(r gjson.Result, path string) (string, string, error) {
	gid, err := stringField(r, path, "gid")
	if err != nil {
		return "", "", err
	}
	name, err := stringField(r, path, "name")
	if err != nil {
		return "", "", err
	}
	return gid, name, nil
}
