package models

// User is the authenticated traveller held by the session store.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	// Token is the identity token presented to the backend as a bearer credential.
	Token string `json:"token,omitempty"`
}

// BackendUser is the profile record kept by the remote service.
type BackendUser struct {
	ID             string         `json:"id" validate:"required"`
	FirebaseUID    string         `json:"firebase_uid,omitempty"`
	Email          string         `json:"email,omitempty"`
	DisplayName    string         `json:"display_name" validate:"required"`
	ProfilePicture string         `json:"profile_picture,omitempty"`
	Preferences    map[string]any `json:"preferences"`
}
