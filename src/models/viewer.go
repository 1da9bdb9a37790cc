package models

// Viewer is the logged-in user looking at a page. A nil *Viewer means
// nobody is logged in.
type Viewer struct {
	ID         int     `json:"id"`
	Username   string  `json:"username"`
	Avatar     *string `json:"avatar"`
	Permission bool    `json:"permission"`
}

func (v *Viewer) IsAuthenticated() bool {
	return v != nil
}

// IsPrivileged reports whether the viewer may manage articles: delete, pin,
// edit, and delete anyone's comments.
func (v *Viewer) IsPrivileged() bool {
	return v != nil && v.Permission
}

func (v *Viewer) Owns(c *Comment) bool {
	return v != nil && c != nil && v.ID == c.User.ID
}

// CanDeleteComment is true for privileged viewers and for the comment's own author.
func (v *Viewer) CanDeleteComment(c *Comment) bool {
	return v.IsPrivileged() || v.Owns(c)
}
