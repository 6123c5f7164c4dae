package api

import "github.com/habedi/voxbridge/client"

// BasePath prefixes every backend route.
const BasePath = "/api"

// Auth endpoints.
const (
	KakaoLoginPath = BasePath + "/auth/kakao"
	RefreshPath    = client.RefreshPath
)

// User endpoints.
const (
	ProfilePath          = BasePath + "/users/profile"
	OnboardingStatusPath = BasePath + "/users/onboarding-status"
	WorkspaceStatusPath  = BasePath + "/users/workspace-status"
)

// Post endpoints.
const PostsPath = BasePath + "/posts"

// PostPath addresses a single post.
func PostPath(id string) string { return PostsPath + "/" + id }

// PostCommentsPath lists or creates the comments of a post.
func PostCommentsPath(postID string) string { return PostPath(postID) + "/comments" }

// CommentPath addresses a single comment.
func CommentPath(id string) string { return BasePath + "/comments/" + id }

// Workspace endpoints.
const (
	WorkspacesPath    = BasePath + "/workspaces"
	WorkspaceJoinPath = WorkspacesPath + "/join"
)

// WorkspacePath addresses a single workspace.
func WorkspacePath(id string) string { return WorkspacesPath + "/" + id }

// Speech and app endpoints.
const (
	ConversationPath = BasePath + "/speech/conversation"
	HealthPath       = BasePath + "/health"
)
