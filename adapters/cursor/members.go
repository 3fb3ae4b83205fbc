package cursor

import (
	"context"
	"fmt"
	"net/http"

	"github.com/artpar/teamlens/domain/adoption"
	"github.com/artpar/teamlens/ports"
)

const teamMembersPath = "/teams/members"

type teamMembersResponse struct {
	TeamMembers []struct {
		Name      string `json:"name"`
		Email     string `json:"email"`
		ID        string `json:"id"`
		Role      string `json:"role"`
		IsRemoved bool   `json:"isRemoved"`
	} `json:"teamMembers"`
}

// FetchTeamMembers fetches the full team roster, removed members included.
func (c *Client) FetchTeamMembers(ctx context.Context) ([]adoption.Member, error) {
	var resp teamMembersResponse
	if err := c.request(ctx, http.MethodGet, teamMembersPath, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch team members: %w", err)
	}

	members := make([]adoption.Member, 0, len(resp.TeamMembers))
	for _, m := range resp.TeamMembers {
		role := m.Role
		if role == "" {
			role = "member"
		}
		members = append(members, adoption.Member{
			Name:      m.Name,
			Email:     m.Email,
			ID:        m.ID,
			Role:      role,
			IsRemoved: m.IsRemoved,
		})
	}

	c.logger.Info().Int("members", len(members)).Msg("fetched team roster")
	return members, nil
}

// Ensure interface compliance.
var _ ports.RosterSource = (*Client)(nil)
