package integration

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type chatroomPayload struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func TestE2E_OrgRoles_ChatroomVisibility_Mentions(t *testing.T) {
	srv, _ := newTestServer(t)

	aliceClient, aliceCSRF := newCSRFClient(t, srv.URL)
	bobClient, bobCSRF := newCSRFClient(t, srv.URL)

	password := "password123"
	aliceID := registerAndLogin(t, aliceClient, srv.URL, aliceCSRF, "alice", "alice@example.com", password)
	bobID := registerAndLogin(t, bobClient, srv.URL, bobCSRF, "bob", "bob@example.com", password)

	orgID := createOrg(t, aliceClient, srv.URL, aliceCSRF, "Acme")
	orgBase := srv.URL + "/api/v1/orgs/" + orgID.String()

	// Bob is not a member yet: everything in the org is forbidden.
	{
		errEnv := doJSONExpectError(t, bobClient, http.MethodPost, orgBase+"/chatrooms", bobCSRF, http.StatusForbidden, map[string]any{
			"name": "intruders",
		})
		require.Equal(t, "forbidden", errEnv.Error.Code)
	}

	// Alice invites Bob by email as MEMBER.
	doJSON(t, aliceClient, http.MethodPost, orgBase+"/members", aliceCSRF, http.StatusCreated, map[string]any{
		"email": "bob@example.com",
		"role":  "MEMBER",
	})

	{
		data := doJSON(t, bobClient, http.MethodGet, orgBase+"/role", "", http.StatusOK, nil)
		var roleResp struct {
			Role string `json:"role"`
		}
		require.NoError(t, json.Unmarshal(data, &roleResp))
		require.Equal(t, "MEMBER", roleResp.Role)
	}

	// A MEMBER still cannot create resources.
	doJSONExpectError(t, bobClient, http.MethodPost, orgBase+"/chatrooms", bobCSRF, http.StatusForbidden, map[string]any{
		"name": "members-corner",
	})

	// Alice creates an unrestricted room: visible to the whole org.
	var generalID uuid.UUID
	{
		data := doJSON(t, aliceClient, http.MethodPost, orgBase+"/chatrooms", aliceCSRF, http.StatusCreated, map[string]any{
			"name":        "general",
			"description": "company-wide chat",
		})
		var created struct {
			Chatroom chatroomPayload `json:"chatroom"`
		}
		require.NoError(t, json.Unmarshal(data, &created))
		generalID = created.Chatroom.ID
	}

	// And a room restricted to herself.
	var privateID uuid.UUID
	{
		data := doJSON(t, aliceClient, http.MethodPost, orgBase+"/chatrooms", aliceCSRF, http.StatusCreated, map[string]any{
			"name":   "owners-only",
			"access": map[string]any{"user_ids": []string{aliceID.String()}},
		})
		var created struct {
			Chatroom chatroomPayload `json:"chatroom"`
		}
		require.NoError(t, json.Unmarshal(data, &created))
		privateID = created.Chatroom.ID
	}

	// Bob sees general but not the restricted room.
	{
		data := doJSON(t, bobClient, http.MethodGet, orgBase+"/chatrooms", "", http.StatusOK, nil)
		var listed struct {
			Chatrooms []chatroomPayload `json:"chatrooms"`
		}
		require.NoError(t, json.Unmarshal(data, &listed))

		names := make(map[string]bool)
		for _, room := range listed.Chatrooms {
			names[room.Name] = true
		}
		require.True(t, names["general"])
		require.False(t, names["owners-only"])
	}
	doJSONExpectError(t, bobClient, http.MethodGet, orgBase+"/chatrooms/"+privateID.String(), "", http.StatusNotFound, nil)

	// The open room resolves to the full org membership.
	{
		data := doJSON(t, bobClient, http.MethodGet, orgBase+"/chatrooms/"+generalID.String()+"/members", "", http.StatusOK, nil)
		var resolved struct {
			Members []struct {
				UserID   uuid.UUID `json:"user_id"`
				Username string    `json:"username"`
			} `json:"members"`
		}
		require.NoError(t, json.Unmarshal(data, &resolved))
		require.Len(t, resolved.Members, 2)
	}

	// Bob mentions Alice; she gets exactly one notification for it.
	doJSON(t, bobClient, http.MethodPost, orgBase+"/chatrooms/"+generalID.String()+"/messages", bobCSRF, http.StatusCreated, map[string]any{
		"content": "hey @alice, welcome!",
	})
	require.Contains(t, listNotificationMessages(t, aliceClient, srv.URL), "bob mentioned you in general")
	require.Empty(t, listNotificationMessages(t, bobClient, srv.URL))

	// Task assignment notifies the assignee; unassignment notifies them again.
	var taskID uuid.UUID
	{
		data := doJSON(t, aliceClient, http.MethodPost, orgBase+"/tasks", aliceCSRF, http.StatusCreated, map[string]any{
			"title":          "Onboard Bob",
			"priority":       "HIGH",
			"assigned_to_id": bobID.String(),
		})
		var created struct {
			Task struct {
				ID uuid.UUID `json:"id"`
			} `json:"task"`
		}
		require.NoError(t, json.Unmarshal(data, &created))
		taskID = created.Task.ID
	}
	require.Contains(t, listNotificationMessages(t, bobClient, srv.URL), `You have been assigned a new task: "Onboard Bob".`)

	doJSON(t, aliceClient, http.MethodPost, orgBase+"/tasks/"+taskID.String()+"/unassign", aliceCSRF, http.StatusOK, nil)
	require.Contains(t, listNotificationMessages(t, bobClient, srv.URL), `Your task "Onboard Bob" has been unassigned.`)

	// Re-assigning an existing task uses the assignment wording, not the
	// creation wording.
	doJSON(t, aliceClient, http.MethodPost, orgBase+"/tasks/"+taskID.String()+"/assign", aliceCSRF, http.StatusOK, map[string]any{
		"user_id": bobID.String(),
	})
	require.Contains(t, listNotificationMessages(t, bobClient, srv.URL), `You have been assigned a task: "Onboard Bob".`)

	// Deletes stay OWNER-only.
	{
		errEnv := doJSONExpectError(t, bobClient, http.MethodDelete, orgBase+"/chatrooms/"+generalID.String(), bobCSRF, http.StatusForbidden, nil)
		require.Equal(t, "forbidden", errEnv.Error.Code)
	}
	doJSON(t, aliceClient, http.MethodDelete, orgBase+"/chatrooms/"+privateID.String(), aliceCSRF, http.StatusOK, nil)
}

func TestE2E_LabelGrantsResolveChatroomAccess(t *testing.T) {
	srv, _ := newTestServer(t)

	ownerClient, ownerCSRF := newCSRFClient(t, srv.URL)
	engClient, engCSRF := newCSRFClient(t, srv.URL)
	salesClient, salesCSRF := newCSRFClient(t, srv.URL)

	password := "password123"
	registerAndLogin(t, ownerClient, srv.URL, ownerCSRF, "owner", "owner@example.com", password)
	engID := registerAndLogin(t, engClient, srv.URL, engCSRF, "engineer", "eng@example.com", password)
	registerAndLogin(t, salesClient, srv.URL, salesCSRF, "seller", "sales@example.com", password)

	orgID := createOrg(t, ownerClient, srv.URL, ownerCSRF, "Labelled Inc")
	orgBase := srv.URL + "/api/v1/orgs/" + orgID.String()

	doJSON(t, ownerClient, http.MethodPost, orgBase+"/members", ownerCSRF, http.StatusCreated, map[string]any{
		"email": "eng@example.com", "role": "MEMBER",
	})
	doJSON(t, ownerClient, http.MethodPost, orgBase+"/members", ownerCSRF, http.StatusCreated, map[string]any{
		"email": "sales@example.com", "role": "MEMBER",
	})

	var labelID uuid.UUID
	{
		data := doJSON(t, ownerClient, http.MethodPost, orgBase+"/labels", ownerCSRF, http.StatusCreated, map[string]any{
			"name": "engineering", "color": "#1f77b4",
		})
		var created struct {
			Label struct {
				ID uuid.UUID `json:"id"`
			} `json:"label"`
		}
		require.NoError(t, json.Unmarshal(data, &created))
		labelID = created.Label.ID
	}

	// Attach the label to the engineer's membership.
	doJSON(t, ownerClient, http.MethodPut, orgBase+"/members/"+engID.String(), ownerCSRF, http.StatusOK, map[string]any{
		"role":     "MEMBER",
		"label_id": labelID.String(),
	})

	var roomID uuid.UUID
	{
		data := doJSON(t, ownerClient, http.MethodPost, orgBase+"/chatrooms", ownerCSRF, http.StatusCreated, map[string]any{
			"name":   "eng-only",
			"access": map[string]any{"label_ids": []string{labelID.String()}},
		})
		var created struct {
			Chatroom chatroomPayload `json:"chatroom"`
		}
		require.NoError(t, json.Unmarshal(data, &created))
		roomID = created.Chatroom.ID
	}

	// Label holder sees the room, label-less member does not.
	doJSON(t, engClient, http.MethodGet, orgBase+"/chatrooms/"+roomID.String(), "", http.StatusOK, nil)
	doJSONExpectError(t, salesClient, http.MethodGet, orgBase+"/chatrooms/"+roomID.String(), "", http.StatusNotFound, nil)

	// The resolved member set is exactly the label holders.
	{
		data := doJSON(t, engClient, http.MethodGet, orgBase+"/chatrooms/"+roomID.String()+"/members", "", http.StatusOK, nil)
		var resolved struct {
			Members []struct {
				UserID uuid.UUID `json:"user_id"`
			} `json:"members"`
		}
		require.NoError(t, json.Unmarshal(data, &resolved))
		require.Len(t, resolved.Members, 1)
		require.Equal(t, engID, resolved.Members[0].UserID)
	}

	// History of an invisible room behaves like a missing room.
	doJSONExpectError(t, salesClient, http.MethodGet, orgBase+"/chatrooms/"+roomID.String()+"/messages", "", http.StatusNotFound, nil)
}
