package api

// KakaoLoginRequest carries the ID token issued by Kakao.
type KakaoLoginRequest struct {
	IDToken string `json:"idToken"`
}

// AuthUser identifies the logged in user.
type AuthUser struct {
	UID string `json:"uid"`
}

// AuthResponse is returned by the Kakao login endpoint.
type AuthResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         AuthUser `json:"user"`
}

// UserProfile is the profile of the logged in user.
type UserProfile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BirthYear    int    `json:"birthYear"`
	Nationality  string `json:"nationality"`
	CurrentCity  string `json:"currentCity"`
	MainLanguage string `json:"mainLanguage"`
}

// ProfileUpdate replaces the whole profile.
type ProfileUpdate struct {
	Name         string `json:"name"`
	BirthYear    int    `json:"birthYear"`
	Nationality  string `json:"nationality"`
	CurrentCity  string `json:"currentCity"`
	MainLanguage string `json:"mainLanguage"`
}

// ProfilePatch updates only the fields that are set.
type ProfilePatch struct {
	Name         *string `json:"name,omitempty"`
	BirthYear    *int    `json:"birthYear,omitempty"`
	Nationality  *string `json:"nationality,omitempty"`
	CurrentCity  *string `json:"currentCity,omitempty"`
	MainLanguage *string `json:"mainLanguage,omitempty"`
}

// CreatePostRequest creates a community post.
type CreatePostRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Language string `json:"language"`
}

// Post is a community post.
type Post struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	AuthorID     string `json:"authorId"`
	AuthorName   string `json:"authorName,omitempty"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
	Language     string `json:"language"`
	CommentCount int    `json:"commentCount"`
}

// CreateCommentRequest adds a comment, or a reply when ParentID is set.
type CreateCommentRequest struct {
	Content  string `json:"content"`
	PostID   string `json:"postId"`
	ParentID string `json:"parentId,omitempty"`
}

// Comment is a post comment with its replies.
type Comment struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName,omitempty"`
	PostID     string    `json:"postId"`
	CreatedAt  string    `json:"createdAt"`
	UpdatedAt  string    `json:"updatedAt"`
	Children   []Comment `json:"children,omitempty"`
}

// CreateWorkspaceRequest creates a workspace.
type CreateWorkspaceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// JoinWorkspaceRequest joins a workspace by invite code.
type JoinWorkspaceRequest struct {
	Code string `json:"code"`
}

// Workspace groups the members of one workplace.
type Workspace struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	OwnerID     string   `json:"ownerId"`
	InviteCode  string   `json:"inviteCode"`
	Members     []string `json:"members"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

// ConversationRequest holds the non-audio fields of a speech upload.
type ConversationRequest struct {
	SelectedForeignLanguage string
	ConversationID          string
}

// ConversationMessage is one recognized utterance with its translation.
// AudioData is base64 encoded synthesized speech, when present.
type ConversationMessage struct {
	ID                 string `json:"id"`
	Timestamp          string `json:"timestamp"`
	OriginalText       string `json:"originalText"`
	OriginalLanguage   string `json:"originalLanguage"`
	TranslatedText     string `json:"translatedText"`
	TranslatedLanguage string `json:"translatedLanguage"`
	AudioData          string `json:"audioData,omitempty"`
}

// ConversationResponse is the reply to a speech upload.
type ConversationResponse struct {
	ConversationID string              `json:"conversationId"`
	Message        ConversationMessage `json:"message"`
}

// HealthResponse is the health check reply.
type HealthResponse struct {
	Message string `json:"message"`
}
