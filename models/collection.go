package models

// CollectionInfo summarises one collection.
type CollectionInfo struct {
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
	IsSmart bool   `json:"is_smart"`
	ID      int    `json:"ID"`
	Items   int    `json:"items"`
}

// LibraryCollections groups the collections of one library.
type LibraryCollections struct {
	Type             string           `json:"type"`
	CollectionsCount int              `json:"collections_count"`
	Collections      []CollectionInfo `json:"collections"`
}

// CollectionListResponse holds []CollectionInfo for one library, or
// map[string]LibraryCollections across libraries.
type CollectionListResponse struct {
	Status      string `json:"status"`
	Collections any    `json:"collections"`
}

// PossibleMatch is a near miss offered when a title has no exact match.
type PossibleMatch struct {
	Title string `json:"title"`
	ID    int    `json:"id"`
	Type  string `json:"type"`
	Year  int    `json:"year,omitempty"`
}

// CollectionRef identifies one of several collections sharing a title.
type CollectionRef struct {
	Title string `json:"title"`
	ID    int    `json:"id"`
	Items int    `json:"items"`
}

type CollectionCreateResponse struct {
	Status          string          `json:"status"`
	Message         string          `json:"message,omitempty"`
	Created         bool            `json:"created"`
	Title           string          `json:"title,omitempty"`
	ID              int             `json:"id,omitempty"`
	Library         string          `json:"library,omitempty"`
	ItemsAdded      int             `json:"items_added"`
	ItemsNotFound   []string        `json:"items_not_found,omitempty"`
	PossibleMatches []PossibleMatch `json:"possible_matches,omitempty"`
}

type CollectionAddResponse struct {
	Status                   string          `json:"status"`
	Message                  string          `json:"message,omitempty"`
	Added                    bool            `json:"added"`
	Title                    string          `json:"title,omitempty"`
	ItemsAdded               []string        `json:"items_added,omitempty"`
	ItemsAlreadyInCollection []string        `json:"items_already_in_collection,omitempty"`
	ItemsNotFound            []string        `json:"items_not_found,omitempty"`
	TotalItems               int             `json:"total_items,omitempty"`
	PossibleMatches          []PossibleMatch `json:"possible_matches,omitempty"`
	MultipleCollections      []CollectionRef `json:"multiple_collections,omitempty"`
}

type CollectionRemoveResponse struct {
	Status              string           `json:"status"`
	Message             string           `json:"message,omitempty"`
	Removed             bool             `json:"removed"`
	Title               string           `json:"title,omitempty"`
	ItemsRemoved        []string         `json:"items_removed,omitempty"`
	ItemsNotFound       []string         `json:"items_not_found,omitempty"`
	RemainingItems      int              `json:"remaining_items,omitempty"`
	CollectionTitle     string           `json:"collection_title,omitempty"`
	CollectionID        int              `json:"collection_id,omitempty"`
	CurrentItems        []map[string]any `json:"current_items,omitempty"`
	MultipleCollections []CollectionRef  `json:"multiple_collections,omitempty"`
}

type CollectionDeleteResponse struct {
	Status              string          `json:"status"`
	Message             string          `json:"message,omitempty"`
	Deleted             bool            `json:"deleted"`
	Title               string          `json:"title,omitempty"`
	MultipleCollections []CollectionRef `json:"multiple_collections,omitempty"`
}

type CollectionEditResponse struct {
	Status              string          `json:"status"`
	Message             string          `json:"message,omitempty"`
	Updated             bool            `json:"updated"`
	Title               string          `json:"title,omitempty"`
	Changes             []string        `json:"changes,omitempty"`
	MultipleCollections []CollectionRef `json:"multiple_collections,omitempty"`
}
