package identity

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// header mirrors the x-rh-identity payload accepted by the platform
// middleware. Used by the CLI and tests to call the API without a gateway.
type header struct {
	Identity struct {
		OrgID    string `json:"org_id"`
		Type     string `json:"type"`
		AuthType string `json:"auth_type"`
		User     struct {
			Username string `json:"username"`
			UserID   string `json:"user_id"`
		} `json:"user"`
		Internal struct {
			OrgID string `json:"org_id"`
		} `json:"internal"`
	} `json:"identity"`
}

// GenerateIdentityHeader builds a base64-encoded x-rh-identity header value
// for the given user.
func GenerateIdentityHeader(orgID, username, userID string) (string, error) {
	if orgID == "" {
		return "", fmt.Errorf("orgID cannot be empty")
	}
	if username == "" {
		return "", fmt.Errorf("username cannot be empty")
	}
	if userID == "" {
		return "", fmt.Errorf("userID cannot be empty")
	}

	var h header
	h.Identity.OrgID = orgID
	h.Identity.Type = "User"
	h.Identity.AuthType = "basic-auth"
	h.Identity.User.Username = username
	h.Identity.User.UserID = userID
	h.Identity.Internal.OrgID = orgID

	payload, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("failed to marshal identity: %w", err)
	}
	return base64.StdEncoding.EncodeToString(payload), nil
}
