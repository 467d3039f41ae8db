package shikimori

// SearchResult is one candidate returned by a title search.
type SearchResult struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Russian string `json:"russian"`
}

// Genre is a genre label with its Russian translation.
type Genre struct {
	Name    string `json:"name"`
	Russian string `json:"russian"`
}

// Studio is a production studio.
type Studio struct {
	Name string `json:"name"`
}

// ExternalLink points at another site's page for the anime.
type ExternalLink struct {
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

// Anime is the detail payload for one identifier. Score and Episodes are nil
// when the service returns null.
type Anime struct {
	ID            string         `json:"id"`
	Score         *float64       `json:"score"`
	Episodes      *int           `json:"episodes"`
	Status        string         `json:"status"`
	URL           string         `json:"url"`
	Genres        []Genre        `json:"genres"`
	Studios       []Studio       `json:"studios"`
	ExternalLinks []ExternalLink `json:"externalLinks"`
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type searchResponse struct {
	Data struct {
		Animes []SearchResult `json:"animes"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type detailResponse struct {
	Data struct {
		Animes []Anime `json:"animes"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}
