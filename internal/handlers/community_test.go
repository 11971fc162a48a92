package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/community-api/internal/dto"
)

func TestCommunityHandler_Info(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/community/community-info", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[dto.CommunityDTO](t, w)
	require.Equal(t, env.community.Name, info.Name)

	_, memberCookies := env.member(t)
	w = env.do(t, http.MethodPut, "/community/community-info", map[string]string{"name": "Renamed"}, memberCookies)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, "/community/community-info", map[string]string{
		"name":        "Renamed",
		"description": "New description",
	}, env.login(t, env.admin.Email))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Renamed", decode[dto.CommunityDTO](t, w).Name)

	w = env.do(t, http.MethodGet, "/community/members-count", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"count":2}`, w.Body.String())
}

func TestCommunityHandler_JoinFlow(t *testing.T) {
	env := setupTestEnv(t)
	applicant := env.createUser(t)
	cookies := env.login(t, applicant.Email)
	adminCookies := env.login(t, env.admin.Email)

	w := env.do(t, http.MethodPost, "/community/join", nil, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/notifications/unread-count", nil, adminCookies)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"count":1}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/notifications", nil, adminCookies)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode[map[string][]dto.NotificationDTO](t, w)
	require.Len(t, listed["notifications"], 1)
	request := listed["notifications"][0]
	require.Equal(t, applicant.ID, request.SenderID)
	require.Equal(t, fmt.Sprintf("%s %s requested to join the community", applicant.FirstName, applicant.LastName), request.Message)

	decision := map[string]any{
		"notificationId": request.ID,
		"userId":         applicant.ID,
		"approve":        true,
	}

	// Only the admin decides.
	w = env.do(t, http.MethodPost, "/notifications/process-join", decision, cookies)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/notifications/process-join", decision, adminCookies)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":true,"status":"approved"}`, w.Body.String())

	// Membership is visible on the next request of the same session.
	w = env.do(t, http.MethodGet, "/auth/current-user", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	current := decode[dto.UserResponse](t, w)
	require.NotNil(t, current.User.CommunityID)
	require.Equal(t, env.community.ID, *current.User.CommunityID)

	w = env.do(t, http.MethodPost, "/posts", map[string]string{"content": "hello all"}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/notifications", nil, cookies)
	listed = decode[map[string][]dto.NotificationDTO](t, w)
	require.Len(t, listed["notifications"], 1)
	require.Equal(t, fmt.Sprintf("Your request to join %s has been approved", env.community.Name), listed["notifications"][0].Message)

	w = env.do(t, http.MethodPost, "/notifications/mark-read", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/notifications/unread-count", nil, cookies)
	require.JSONEq(t, `{"count":0}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/community/join", nil, cookies)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestCommunityHandler_JoinedMembers(t *testing.T) {
	env := setupTestEnv(t)
	member, _ := env.member(t)
	env.createUser(t)

	w := env.do(t, http.MethodGet, "/community/joined-members", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	members := decode[map[string][]dto.MemberDTO](t, w)
	require.Len(t, members["members"], 2)

	ids := []uint64{members["members"][0].ID, members["members"][1].ID}
	require.ElementsMatch(t, []uint64{env.admin.ID, member.ID}, ids)
}

func TestUserHandler_ProfileAndAvatar(t *testing.T) {
	env := setupTestEnv(t)
	user, cookies := env.member(t)
	other, _ := env.member(t)
	path := fmt.Sprintf("/users/%d", user.ID)

	w := env.do(t, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "password")

	w = env.do(t, http.MethodPut, fmt.Sprintf("/users/%d", other.ID), map[string]string{
		"firstName": "Mallory",
		"lastName":  "Intruder",
	}, cookies)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, path, map[string]string{
		"firstName": "  Grace ",
		"lastName":  "Hopper",
	}, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[dto.ProfileDTO](t, w)
	require.Equal(t, "Grace", profile.FirstName)
	require.Equal(t, user.Company, profile.Company)

	w = env.do(t, http.MethodGet, path+"/avatar", nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.upload(t, path+"/avatar", "avatar", pngHeader, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.JSONEq(t, fmt.Sprintf(`{"success":true,"avatarUrl":"/users/%d/avatar"}`, user.ID), w.Body.String())

	w = env.do(t, http.MethodGet, path+"/avatar", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, pngHeader, w.Body.Bytes())

	w = env.upload(t, fmt.Sprintf("/users/%d/avatar", other.ID), "avatar", pngHeader, cookies)
	require.Equal(t, http.StatusForbidden, w.Code)
}
