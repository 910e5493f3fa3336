package feed

// Repo is one entry of a GitHub repository listing. Only the fields the
// importer reads are decoded.
type Repo struct {
	Name            string     `json:"name"`
	Description     *string    `json:"description"`
	Fork            bool       `json:"fork"`
	Size            int        `json:"size"`
	HTMLURL         string     `json:"html_url"`
	Language        *string    `json:"language"`
	StargazersCount int        `json:"stargazers_count"`
	CreatedAt       string     `json:"created_at"`
	Private         bool       `json:"private"`
	Visibility      string     `json:"visibility,omitempty"`
	Owner           *RepoOwner `json:"owner,omitempty"`
}

// RepoOwner identifies the account owning a repository.
type RepoOwner struct {
	Login string `json:"login"`
}

func (r Repo) description() string {
	if r.Description == nil {
		return ""
	}
	return *r.Description
}

func (r Repo) language() string {
	if r.Language == nil {
		return ""
	}
	return *r.Language
}

// keep reports whether the repo belongs in the directory.
func (r Repo) keep() bool {
	return r.description() != "" && !r.Fork && r.Size > 0
}
