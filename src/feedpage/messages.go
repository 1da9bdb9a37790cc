package feedpage

// Messages is the copy the article page shows in dialogs and errors.
type Messages struct {
	DeleteTitle   string
	DeleteConfirm string
	DeleteSuccess string

	PinTitle     string
	PinConfirm   string
	PinSuccess   string
	UnpinTitle   string
	UnpinConfirm string
	UnpinSuccess string

	DeleteCommentTitle   string
	DeleteCommentConfirm string
	CommentPosted        string
	LoginRequired        string
	CommentEmpty         string

	NetworkError       string
	UnexpectedResponse string
	AboutNotFound      string
}

var English = Messages{
	DeleteTitle:   "Delete article",
	DeleteConfirm: "Are you sure you want to delete this article? This cannot be undone.",
	DeleteSuccess: "Deleted successfully",

	PinTitle:     "Pin article",
	PinConfirm:   "Pin this article to the top of the home page?",
	PinSuccess:   "Article pinned",
	UnpinTitle:   "Unpin article",
	UnpinConfirm: "Remove this article from the top of the home page?",
	UnpinSuccess: "Article unpinned",

	DeleteCommentTitle:   "Delete comment",
	DeleteCommentConfirm: "Are you sure you want to delete this comment?",
	CommentPosted:        "Comment posted",
	LoginRequired:        "Login required",
	CommentEmpty:         "Comment cannot be empty",

	NetworkError:       "Network error",
	UnexpectedResponse: "Unexpected response",
	AboutNotFound:      "There is no about page yet. Write an article with the alias \"about\" to create one.",
}

// Backend error tokens with their own copy.
const (
	TokenNotFound        = "Not found"
	TokenUnauthorized    = "Unauthorized"
	TokenContentRequired = "Content is required"
)

// HumanizeCommentError maps the tokens a comment submission can fail with
// to friendlier copy. Unknown tokens are shown as they are.
func (m Messages) HumanizeCommentError(token string) string {
	switch token {
	case TokenUnauthorized:
		return m.LoginRequired
	case TokenContentRequired:
		return m.CommentEmpty
	}
	return token
}
