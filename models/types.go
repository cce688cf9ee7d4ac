// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Proverb status constants
const (
	StatusPending   = "pending"
	StatusPublished = "published"
	StatusRejected  = "rejected"
	StatusFlagged   = "flagged"
	StatusDraft     = "draft"
)

// Report status constants
const (
	ReportOpen      = "open"
	ReportResolved  = "resolved"
	ReportDismissed = "dismissed"
)

// Profile role constants
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Mod action names, written to the audit log
const (
	ActionApprove       = "approve"
	ActionReject        = "reject"
	ActionResolveReport = "resolve_report"
	ActionDismissReport = "dismiss_report"
	ActionRemoveProverb = "remove_proverb"
	ActionEditProverb   = "edit_proverb"
	ActionBan           = "ban"
	ActionUnban         = "unban"
	ActionRoleChange    = "role_change"
)

// Request types

type SubmitProverbRequest struct {
	CountryCode  string   `json:"country_code"`
	Region       string   `json:"region"`
	LanguageName string   `json:"language_name"`
	OriginalText string   `json:"original_text"`
	LiteralText  string   `json:"literal_text"`
	MeaningText  string   `json:"meaning_text"`
	WrongOptions []string `json:"wrong_options"`
	CaptchaToken string   `json:"captcha_token"`
}

type SubmitGuessRequest struct {
	OptionID string `json:"option_id"`
}

type ToggleReactionRequest struct {
	Emoji string `json:"emoji"`
}

type SubmitReportRequest struct {
	Reason       string `json:"reason"`
	CaptchaToken string `json:"captcha_token"`
}

type MagicLinkRequest struct {
	Email                 string `json:"email"`
	CaptchaToken          string `json:"captcha_token"`
	MarketingUpdatesOptIn bool   `json:"marketing_updates_opt_in"`
	TermsAcceptedAt       string `json:"terms_accepted_at"`
	PrivacyAcceptedAt     string `json:"privacy_accepted_at"`
}

type CreateSessionRequest struct {
	Token string `json:"token"`
}

type UpdatePreferencesRequest struct {
	MarketingUpdatesOptIn *bool   `json:"marketing_updates_opt_in,omitempty"`
	TermsAcceptedAt       *string `json:"terms_accepted_at,omitempty"`
	PrivacyAcceptedAt     *string `json:"privacy_accepted_at,omitempty"`
}

type ConsumeConsentRequest struct {
	Token string `json:"token"`
}

type ModerationNoteRequest struct {
	Note string `json:"note"`
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

type EditProverbRequest struct {
	CountryCode  string   `json:"country_code"`
	Region       *string  `json:"region"`
	LanguageName string   `json:"language_name"`
	OriginalText string   `json:"original_text"`
	LiteralText  string   `json:"literal_text"`
	MeaningText  string   `json:"meaning_text"`
	Status       string   `json:"status"`
	WrongOptions []string `json:"wrong_options"`
}

// Response types

type OKResponse struct {
	OK bool `json:"ok"`
}

type SubmitProverbResponse struct {
	ID string `json:"id"`
}

type GuessResponse struct {
	SelectedOption string `json:"selected_option"`
	IsCorrect      bool   `json:"is_correct"`
	AlreadyExisted bool   `json:"already_existed"`
}

type RandomPickResponse struct {
	ID *string `json:"id"`
}

type ToggleReactionResponse struct {
	Emoji *string `json:"emoji"`
}

type ToggleVoteResponse struct {
	Voted     bool `json:"voted"`
	VoteCount int  `json:"vote_count"`
}

type ReportStatusResponse struct {
	HasReported bool `json:"hasReported"`
}

type RoleResponse struct {
	Role          string     `json:"role"`
	BannedAt      *time.Time `json:"banned_at"`
	Authenticated bool       `json:"authenticated"`
}

type SessionResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

type ConsumeConsentResponse struct {
	OK       bool `json:"ok"`
	Consumed bool `json:"consumed"`
}

type FeedResponse struct {
	Proverbs []FeedProverb `json:"proverbs"`
}

type ProverbDetailResponse struct {
	Proverb ProverbDetail `json:"proverb"`
}

type ReactionsResponse struct {
	Reactions []Reaction `json:"reactions"`
}

type DistributionResponse struct {
	Distribution []DistributionItem `json:"distribution"`
}

type LeaderboardResponse struct {
	Entries []LeaderboardEntry `json:"entries"`
}

type StoredGuessResponse struct {
	Guess *StoredGuess `json:"guess"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Domain types

type Proverb struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	CountryCode  string    `json:"country_code"`
	Region       *string   `json:"region"`
	LanguageName string    `json:"language_name"`
	OriginalText string    `json:"original_text"`
	LiteralText  string    `json:"literal_text"`
	MeaningText  string    `json:"meaning_text"`
	VoteCount    int       `json:"vote_count"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type FeedProverb struct {
	Proverb
	DisplayName *string `json:"display_name"`
}

type ProverbDetail struct {
	Proverb
	DisplayName  *string       `json:"display_name"`
	GuessOptions []GuessOption `json:"guess_options"`
}

type GuessOption struct {
	ID        string `json:"id"`
	ProverbID string `json:"proverb_id"`
	Text      string `json:"option_text"`
	IsCorrect bool   `json:"is_correct"`
	SortOrder int    `json:"sort_order"`
}

type StoredGuess struct {
	SelectedOption string `json:"selected_option"`
	IsCorrect      bool   `json:"is_correct"`
}

type Reaction struct {
	Emoji  string `json:"emoji"`
	UserID string `json:"user_id"`
}

type DistributionItem struct {
	OptionID       string  `json:"option_id"`
	OptionText     string  `json:"option_text"`
	IsCorrect      bool    `json:"is_correct"`
	PickCount      int     `json:"pick_count"`
	PickPercentage float64 `json:"pick_percentage"`
}

type LeaderboardEntry struct {
	ID           string  `json:"id"`
	CountryCode  string  `json:"country_code"`
	LanguageName string  `json:"language_name"`
	OriginalText string  `json:"original_text"`
	VoteCount    int     `json:"vote_count"`
	DisplayName  *string `json:"display_name"`
	Rank         int     `json:"rank"`
}

type Report struct {
	ID        string          `json:"id"`
	Reason    string          `json:"reason"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	Reporter  *string         `json:"reporter"`
	Proverb   ReportedProverb `json:"proverb"`
}

type ReportedProverb struct {
	ID           string `json:"id"`
	OriginalText string `json:"original_text"`
	LiteralText  string `json:"literal_text"`
	CountryCode  string `json:"country_code"`
	LanguageName string `json:"language_name"`
}

type Profile struct {
	ID                    string     `json:"id"`
	DisplayName           *string    `json:"display_name"`
	Role                  string     `json:"role"`
	BannedAt              *time.Time `json:"banned_at"`
	MarketingUpdatesOptIn bool       `json:"marketing_updates_opt_in"`
	CreatedAt             time.Time  `json:"created_at"`
}

type ModAction struct {
	ID          string    `json:"id"`
	Action      string    `json:"action"`
	TargetType  string    `json:"target_type"`
	TargetID    string    `json:"target_id"`
	Note        *string   `json:"note"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedAgo  string    `json:"created_ago"`
	DisplayName *string   `json:"display_name"`
}

// Manage dashboard responses

type PendingResponse struct {
	Proverbs []PendingProverb `json:"proverbs"`
}

type PendingProverb struct {
	ID           string    `json:"id"`
	OriginalText string    `json:"original_text"`
	LiteralText  string    `json:"literal_text"`
	MeaningText  string    `json:"meaning_text"`
	CountryCode  string    `json:"country_code"`
	LanguageName string    `json:"language_name"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	DisplayName  *string   `json:"display_name"`
}

type ReportsResponse struct {
	Reports []Report `json:"reports"`
}

type StatsResponse struct {
	Stats         Stats       `json:"stats"`
	RecentActions []ModAction `json:"recentActions"`
}

type Stats struct {
	TotalUsers        int `json:"totalUsers"`
	TotalProverbs     int `json:"totalProverbs"`
	PublishedProverbs int `json:"publishedProverbs"`
	PendingProverbs   int `json:"pendingProverbs"`
	RejectedProverbs  int `json:"rejectedProverbs"`
	TotalReactions    int `json:"totalReactions"`
	OpenReports       int `json:"openReports"`
	EmailOptInUsers   int `json:"emailOptInUsers"`
}

type ManageProverbsResponse struct {
	Proverbs []ManagedProverb `json:"proverbs"`
	Total    int              `json:"total"`
}

type ManagedProverb struct {
	ID           string    `json:"id"`
	OriginalText string    `json:"original_text"`
	CountryCode  string    `json:"country_code"`
	LanguageName string    `json:"language_name"`
	Status       string    `json:"status"`
	VoteCount    int       `json:"vote_count"`
	CreatedAt    time.Time `json:"created_at"`
	DisplayName  *string   `json:"display_name"`
}

type ManageProverbDetailResponse struct {
	Proverb EditableProverb `json:"proverb"`
}

type EditableProverb struct {
	ID           string        `json:"id"`
	CountryCode  string        `json:"country_code"`
	Region       *string       `json:"region"`
	LanguageName string        `json:"language_name"`
	OriginalText string        `json:"original_text"`
	LiteralText  string        `json:"literal_text"`
	MeaningText  string        `json:"meaning_text"`
	Status       string        `json:"status"`
	GuessOptions []GuessOption `json:"guess_options"`
}

type LanguagesResponse struct {
	Languages []LanguageCount `json:"languages"`
}

type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}

type UsersResponse struct {
	Users []Profile `json:"users"`
}
