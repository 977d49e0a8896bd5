package server

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/hays/plex-mcp/models"
	"github.com/hays/plex-mcp/plex"
)

func collectionInfo(m plex.Metadata) models.CollectionInfo {
	return models.CollectionInfo{
		Title:   m.Title,
		Summary: m.Summary,
		IsSmart: bool(m.Smart),
		ID:      m.ID(),
		Items:   m.ChildCount,
	}
}

// collectionSections are the section types that carry collections.
var collectionSections = []string{"movie", "show"}

// --- collection_list ---

type collectionListArgs struct {
	LibraryName string `json:"library_name"`
}

func (s *Server) collectionList(ctx context.Context, c *plex.Client, in collectionListArgs) (any, error) {
	if in.LibraryName != "" {
		section, _, err := c.SectionByTitle(ctx, in.LibraryName)
		if errors.Is(err, plex.ErrNotFound) {
			return nil, fmt.Errorf("library '%s' not found", in.LibraryName)
		}
		if err != nil {
			return nil, err
		}
		colls, err := c.Collections(ctx, section.Key)
		if err != nil {
			return nil, fmt.Errorf("error listing collections: %w", err)
		}
		infos := make([]models.CollectionInfo, 0, len(colls))
		for _, m := range colls {
			infos = append(infos, collectionInfo(m))
		}
		return models.CollectionListResponse{Status: models.StatusSuccess, Collections: infos}, nil
	}

	sections, err := c.Sections(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing libraries: %w", err)
	}
	grouped := map[string]models.LibraryCollections{}
	for _, sec := range sections {
		if !slices.Contains(collectionSections, sec.Type) {
			continue
		}
		colls, err := c.Collections(ctx, sec.Key)
		if err != nil {
			return nil, fmt.Errorf("error listing collections in %s: %w", sec.Title, err)
		}
		infos := make([]models.CollectionInfo, 0, len(colls))
		for _, m := range colls {
			infos = append(infos, collectionInfo(m))
		}
		grouped[sec.Title] = models.LibraryCollections{
			Type:             sec.Type,
			CollectionsCount: len(infos),
			Collections:      infos,
		}
	}
	return models.CollectionListResponse{Status: models.StatusSuccess, Collections: grouped}, nil
}

// --- lookup ---

// collectionTarget names a collection by id, or by title within a library.
type collectionTarget struct {
	CollectionTitle string `json:"collection_title"`
	CollectionID    Key    `json:"collection_id"`
	LibraryName     string `json:"library_name"`
}

// foundCollection is the result of resolving a collectionTarget. When the
// title is ambiguous, Multiple lists the candidates and Collection is empty.
type foundCollection struct {
	Collection plex.Metadata
	Section    *plex.Directory
	Multiple   []models.CollectionRef
}

// findCollection resolves t. verb completes "Library name is required when
// ... by collection title".
func findCollection(ctx context.Context, c *plex.Client, t collectionTarget, verb string) (foundCollection, error) {
	if t.CollectionID == "" && t.CollectionTitle == "" {
		return foundCollection{}, errors.New("either collection_id or collection_title must be provided")
	}

	if t.CollectionID != "" {
		m, err := c.Metadata(ctx, t.CollectionID.String())
		if err == nil {
			return foundCollection{Collection: *m}, nil
		}
		if !errors.Is(err, plex.ErrNotFound) {
			return foundCollection{}, fmt.Errorf("error fetching collection by ID: %w", err)
		}
		sections, err := c.Sections(ctx)
		if err != nil {
			return foundCollection{}, fmt.Errorf("error fetching collection by ID: %w", err)
		}
		for _, sec := range sections {
			if !slices.Contains(collectionSections, sec.Type) {
				continue
			}
			colls, err := c.Collections(ctx, sec.Key)
			if err != nil {
				continue
			}
			for _, m := range colls {
				if m.RatingKey == t.CollectionID.String() {
					return foundCollection{Collection: m, Section: &sec}, nil
				}
			}
		}
		return foundCollection{}, fmt.Errorf("collection with ID '%s' not found", t.CollectionID)
	}

	if t.LibraryName == "" {
		return foundCollection{}, fmt.Errorf("library name is required when %s by collection title", verb)
	}
	section, _, err := c.SectionByTitle(ctx, t.LibraryName)
	if errors.Is(err, plex.ErrNotFound) {
		return foundCollection{}, fmt.Errorf("library '%s' not found", t.LibraryName)
	}
	if err != nil {
		return foundCollection{}, err
	}
	colls, err := c.Collections(ctx, section.Key)
	if err != nil {
		return foundCollection{}, fmt.Errorf("error listing collections: %w", err)
	}
	var matches []plex.Metadata
	for _, m := range colls {
		if strings.EqualFold(m.Title, t.CollectionTitle) {
			matches = append(matches, m)
		}
	}
	switch len(matches) {
	case 0:
		return foundCollection{}, fmt.Errorf("collection '%s' not found in library '%s'", t.CollectionTitle, t.LibraryName)
	case 1:
		return foundCollection{Collection: matches[0], Section: &section}, nil
	}
	refs := make([]models.CollectionRef, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, models.CollectionRef{Title: m.Title, ID: m.ID(), Items: m.ChildCount})
	}
	return foundCollection{Multiple: refs}, nil
}

// collectionSection returns the section a collection lives in.
func collectionSection(ctx context.Context, c *plex.Client, found foundCollection) (plex.Directory, error) {
	if found.Section != nil {
		return *found.Section, nil
	}
	if found.Collection.LibrarySectionID > 0 {
		return c.SectionByID(ctx, found.Collection.LibrarySectionID)
	}
	return plex.Directory{}, errors.New("could not determine which library to search in")
}

// itemMatches is the outcome of resolving item ids and titles in a section.
type itemMatches struct {
	found    []plex.Metadata
	labels   []string // the id or title each found item was requested by
	notFound []string
	possible []models.PossibleMatch
}

// resolveItems fetches ids directly and searches titles in section, taking
// only exact case-insensitive title matches.
func resolveItems(ctx context.Context, c *plex.Client, section plex.Directory, ids []Key, titles []string) (itemMatches, error) {
	var out itemMatches
	for _, id := range ids {
		m, err := c.Metadata(ctx, id.String())
		if err != nil {
			out.notFound = append(out.notFound, id.String())
			continue
		}
		out.found = append(out.found, *m)
		out.labels = append(out.labels, id.String())
	}

	for _, title := range titles {
		results, err := c.SearchSection(ctx, section.Key, title, 0)
		if err != nil {
			return out, fmt.Errorf("searching for '%s': %w", title, err)
		}
		if len(results) == 0 {
			out.notFound = append(out.notFound, title)
			continue
		}
		idx := slices.IndexFunc(results, func(m plex.Metadata) bool {
			return strings.EqualFold(m.Title, title)
		})
		if idx >= 0 {
			out.found = append(out.found, results[idx])
			out.labels = append(out.labels, title)
			continue
		}
		for _, m := range results {
			pm := models.PossibleMatch{Title: m.Title, ID: m.ID(), Type: m.Type, Year: m.Year}
			if !slices.Contains(out.possible, pm) {
				out.possible = append(out.possible, pm)
			}
		}
	}
	return out, nil
}

// --- collection_create ---

type collectionCreateArgs struct {
	CollectionTitle string   `json:"collection_title"`
	LibraryName     string   `json:"library_name"`
	ItemTitles      []string `json:"item_titles"`
	ItemIDs         []Key    `json:"item_ids"`
}

func (s *Server) collectionCreate(ctx context.Context, c *plex.Client, in collectionCreateArgs) (any, error) {
	if len(in.ItemTitles) == 0 && len(in.ItemIDs) == 0 {
		return nil, errors.New("either item_titles or item_ids must be provided")
	}
	section, _, err := c.SectionByTitle(ctx, in.LibraryName)
	if errors.Is(err, plex.ErrNotFound) {
		return nil, fmt.Errorf("library '%s' not found", in.LibraryName)
	}
	if err != nil {
		return nil, err
	}

	if existing, err := c.Collections(ctx, section.Key); err == nil {
		for _, m := range existing {
			if strings.EqualFold(m.Title, in.CollectionTitle) {
				return nil, fmt.Errorf("collection '%s' already exists in library '%s'", in.CollectionTitle, in.LibraryName)
			}
		}
	}

	items, err := resolveItems(ctx, c, section, in.ItemIDs, in.ItemTitles)
	if err != nil {
		return nil, err
	}
	if len(items.found) == 0 && len(items.possible) > 0 {
		return models.CollectionCreateResponse{
			Status:          models.StatusError,
			Message:         "No exact matches found. See possible_matches.",
			PossibleMatches: items.possible,
		}, nil
	}
	if len(items.found) == 0 {
		return nil, errors.New("no matching media items found for the collection")
	}

	ratingKeys := make([]string, 0, len(items.found))
	for _, m := range items.found {
		ratingKeys = append(ratingKeys, m.RatingKey)
	}
	coll, err := c.CreateCollection(ctx, section.Key, in.CollectionTitle, plex.TypeNumber(items.found[0].Type), ratingKeys)
	if err != nil {
		return nil, fmt.Errorf("error creating collection: %w", err)
	}

	return models.CollectionCreateResponse{
		Status:        models.StatusSuccess,
		Created:       true,
		Title:         coll.Title,
		ID:            coll.ID(),
		Library:       in.LibraryName,
		ItemsAdded:    len(items.found),
		ItemsNotFound: items.notFound,
	}, nil
}

// --- collection_add_to ---

type collectionAddArgs struct {
	collectionTarget
	ItemTitles []string `json:"item_titles"`
	ItemIDs    []Key    `json:"item_ids"`
}

func (s *Server) collectionAddTo(ctx context.Context, c *plex.Client, in collectionAddArgs) (any, error) {
	if in.CollectionID == "" && in.CollectionTitle == "" {
		return nil, errors.New("either collection_id or collection_title must be provided")
	}
	if len(in.ItemTitles) == 0 && len(in.ItemIDs) == 0 {
		return nil, errors.New("either item_titles or item_ids must be provided")
	}

	found, err := findCollection(ctx, c, in.collectionTarget, "adding items")
	if err != nil {
		return nil, err
	}
	if found.Multiple != nil {
		return models.CollectionAddResponse{Status: models.StatusMultipleMatches, MultipleCollections: found.Multiple}, nil
	}
	coll := found.Collection

	current, err := c.CollectionItems(ctx, coll.RatingKey)
	if err != nil {
		return nil, fmt.Errorf("error reading collection: %w", err)
	}
	present := map[string]bool{}
	for _, m := range current {
		present[m.RatingKey] = true
	}

	var section plex.Directory
	if len(in.ItemTitles) > 0 {
		if section, err = collectionSection(ctx, c, found); err != nil {
			return nil, err
		}
	}
	items, err := resolveItems(ctx, c, section, in.ItemIDs, in.ItemTitles)
	if err != nil {
		return nil, err
	}

	var (
		toAdd   []string
		added   []string
		already []string
	)
	for i, m := range items.found {
		if present[m.RatingKey] {
			already = append(already, items.labels[i])
			continue
		}
		toAdd = append(toAdd, m.RatingKey)
		added = append(added, m.Title)
	}

	if len(toAdd) == 0 && len(items.possible) > 0 {
		return models.CollectionAddResponse{
			Status:          models.StatusError,
			Message:         "No exact matches found. See possible_matches.",
			PossibleMatches: items.possible,
		}, nil
	}
	if len(toAdd) == 0 && len(already) == 0 {
		return nil, errors.New("no matching media items found to add to the collection")
	}

	if len(toAdd) > 0 {
		if err := c.AddToCollection(ctx, coll.RatingKey, toAdd); err != nil {
			return nil, fmt.Errorf("error adding to collection: %w", err)
		}
	}
	total := len(current) + len(toAdd)
	if after, err := c.CollectionItems(ctx, coll.RatingKey); err == nil {
		total = len(after)
	}

	return models.CollectionAddResponse{
		Status:                   models.StatusSuccess,
		Added:                    true,
		Title:                    coll.Title,
		ItemsAdded:               added,
		ItemsAlreadyInCollection: already,
		ItemsNotFound:            items.notFound,
		TotalItems:               total,
	}, nil
}

// --- collection_remove_from ---

type collectionRemoveArgs struct {
	collectionTarget
	ItemTitles []string `json:"item_titles"`
	ItemIDs    []Key    `json:"item_ids"`
}

func (s *Server) collectionRemoveFrom(ctx context.Context, c *plex.Client, in collectionRemoveArgs) (any, error) {
	if in.CollectionID == "" && in.CollectionTitle == "" {
		return nil, errors.New("either collection_id or collection_title must be provided")
	}
	if len(in.ItemTitles) == 0 && len(in.ItemIDs) == 0 {
		return nil, errors.New("at least one item title or id must be provided to remove")
	}

	found, err := findCollection(ctx, c, in.collectionTarget, "removing items")
	if err != nil {
		return nil, err
	}
	if found.Multiple != nil {
		return models.CollectionRemoveResponse{Status: models.StatusMultipleMatches, MultipleCollections: found.Multiple}, nil
	}
	coll := found.Collection

	current, err := c.CollectionItems(ctx, coll.RatingKey)
	if err != nil {
		return nil, fmt.Errorf("error reading collection: %w", err)
	}

	var (
		remove   []plex.Metadata
		notFound []string
	)
	pick := func(label string, match func(plex.Metadata) bool) {
		idx := slices.IndexFunc(current, match)
		if idx < 0 {
			notFound = append(notFound, label)
			return
		}
		if !slices.ContainsFunc(remove, func(m plex.Metadata) bool { return m.RatingKey == current[idx].RatingKey }) {
			remove = append(remove, current[idx])
		}
	}
	for _, id := range in.ItemIDs {
		pick(id.String(), func(m plex.Metadata) bool { return m.RatingKey == id.String() })
	}
	for _, title := range in.ItemTitles {
		pick(title, func(m plex.Metadata) bool { return strings.EqualFold(m.Title, title) })
	}

	if len(remove) == 0 {
		items := make([]map[string]any, 0, len(current))
		for _, m := range current {
			items = append(items, map[string]any{"title": m.Title, "type": m.Type, "id": m.ID()})
		}
		return models.CollectionRemoveResponse{
			Status:          models.StatusError,
			Message:         "None of the specified items were found in the collection",
			CollectionTitle: coll.Title,
			CollectionID:    coll.ID(),
			CurrentItems:    items,
			ItemsNotFound:   notFound,
		}, nil
	}

	removed := make([]string, 0, len(remove))
	for _, m := range remove {
		if err := c.RemoveFromCollection(ctx, coll.RatingKey, m.RatingKey); err != nil {
			return nil, fmt.Errorf("error removing '%s' from collection: %w", m.Title, err)
		}
		removed = append(removed, m.Title)
	}

	return models.CollectionRemoveResponse{
		Status:         models.StatusSuccess,
		Removed:        true,
		Title:          coll.Title,
		ItemsRemoved:   removed,
		ItemsNotFound:  notFound,
		RemainingItems: len(current) - len(remove),
	}, nil
}

// --- collection_delete ---

func (s *Server) collectionDelete(ctx context.Context, c *plex.Client, in collectionTarget) (any, error) {
	found, err := findCollection(ctx, c, in, "deleting")
	if err != nil {
		return nil, err
	}
	if found.Multiple != nil {
		return models.CollectionDeleteResponse{Status: models.StatusMultipleMatches, MultipleCollections: found.Multiple}, nil
	}
	if err := c.Delete(ctx, found.Collection.RatingKey); err != nil {
		return nil, fmt.Errorf("error deleting collection: %w", err)
	}
	return models.CollectionDeleteResponse{Status: models.StatusSuccess, Deleted: true, Title: found.Collection.Title}, nil
}

// --- collection_edit ---

type collectionEditArgs struct {
	collectionTarget
	NewTitle            *string        `json:"new_title"`
	NewSortTitle        *string        `json:"new_sort_title"`
	NewSummary          *string        `json:"new_summary"`
	NewContentRating    *string        `json:"new_content_rating"`
	NewLabels           []string       `json:"new_labels"`
	AddLabels           []string       `json:"add_labels"`
	RemoveLabels        []string       `json:"remove_labels"`
	PosterPath          string         `json:"poster_path"`
	PosterURL           string         `json:"poster_url"`
	BackgroundPath      string         `json:"background_path"`
	BackgroundURL       string         `json:"background_url"`
	NewAdvancedSettings map[string]any `json:"new_advanced_settings"`
}

// labelEdit builds the edit fields that add or remove labels.
func labelEdit(labels []string, remove bool) url.Values {
	v := url.Values{}
	if remove {
		v.Set("label[].tag.tag-", strings.Join(labels, ","))
		return v
	}
	for i, l := range labels {
		v.Set("label["+strconv.Itoa(i)+"].tag.tag", l)
	}
	v.Set("label.locked", "1")
	return v
}

func (s *Server) collectionEdit(ctx context.Context, c *plex.Client, in collectionEditArgs) (any, error) {
	found, err := findCollection(ctx, c, in.collectionTarget, "editing")
	if err != nil {
		return nil, err
	}
	if found.Multiple != nil {
		return models.CollectionEditResponse{Status: models.StatusMultipleMatches, MultipleCollections: found.Multiple}, nil
	}
	coll := found.Collection
	sectionID := coll.LibrarySectionID
	if sectionID == 0 && found.Section != nil {
		sectionID = found.Section.ID()
	}
	edit := func(fields url.Values) error {
		return c.Edit(ctx, sectionID, plex.TypeCollection, coll.RatingKey, fields)
	}

	var changes []string
	fields := url.Values{}
	setField := func(name string, value *string, current, change string) {
		if value == nil || *value == current {
			return
		}
		fields.Set(name+".value", *value)
		fields.Set(name+".locked", "1")
		changes = append(changes, change)
	}
	if in.NewTitle != nil {
		setField("title", in.NewTitle, coll.Title, fmt.Sprintf("title to '%s'", *in.NewTitle))
	}
	if in.NewSortTitle != nil {
		setField("titleSort", in.NewSortTitle, coll.TitleSort, fmt.Sprintf("sort title to '%s'", *in.NewSortTitle))
	}
	setField("summary", in.NewSummary, coll.Summary, "summary")
	if in.NewContentRating != nil {
		setField("contentRating", in.NewContentRating, coll.ContentRating, fmt.Sprintf("content rating to '%s'", *in.NewContentRating))
	}
	if len(fields) > 0 {
		if err := edit(fields); err != nil {
			return nil, fmt.Errorf("error editing collection: %w", err)
		}
	}

	current := plex.Tags(coll.Label)
	switch {
	case in.NewLabels != nil:
		if len(current) > 0 {
			if err := edit(labelEdit(current, true)); err != nil {
				return nil, fmt.Errorf("error replacing labels: %w", err)
			}
		}
		if len(in.NewLabels) > 0 {
			if err := edit(labelEdit(in.NewLabels, false)); err != nil {
				return nil, fmt.Errorf("error replacing labels: %w", err)
			}
		}
		changes = append(changes, "labels completely replaced")
	default:
		if len(in.AddLabels) > 0 {
			var missing []string
			for _, l := range in.AddLabels {
				if !slices.Contains(current, l) {
					missing = append(missing, l)
				}
			}
			if len(missing) > 0 {
				if err := edit(labelEdit(append(slices.Clone(current), missing...), false)); err != nil {
					return nil, fmt.Errorf("error adding labels: %w", err)
				}
			}
			changes = append(changes, "added labels: "+strings.Join(in.AddLabels, ", "))
		}
		if len(in.RemoveLabels) > 0 {
			var present []string
			for _, l := range in.RemoveLabels {
				if slices.Contains(current, l) {
					present = append(present, l)
				}
			}
			if len(present) > 0 {
				if err := edit(labelEdit(present, true)); err != nil {
					return nil, fmt.Errorf("error removing labels: %w", err)
				}
			}
			changes = append(changes, "removed labels: "+strings.Join(in.RemoveLabels, ", "))
		}
	}

	art := []struct {
		kind      plex.ArtKind
		path, url string
		name      string
	}{
		{plex.ArtPoster, in.PosterPath, in.PosterURL, "poster"},
		{plex.ArtBackground, in.BackgroundPath, in.BackgroundURL, "background art"},
	}
	for _, a := range art {
		switch {
		case a.path != "":
			data, err := os.ReadFile(a.path)
			if err != nil {
				return nil, fmt.Errorf("error reading %s file: %w", a.name, err)
			}
			if err := c.UploadArtwork(ctx, coll.RatingKey, a.kind, data); err != nil {
				return nil, fmt.Errorf("error uploading %s: %w", a.name, err)
			}
			changes = append(changes, a.name+" (from file)")
		case a.url != "":
			if err := c.UploadArtworkURL(ctx, coll.RatingKey, a.kind, a.url); err != nil {
				return nil, fmt.Errorf("error uploading %s: %w", a.name, err)
			}
			changes = append(changes, a.name+" (from URL)")
		}
	}

	if len(in.NewAdvancedSettings) > 0 {
		prefs := make(map[string]string, len(in.NewAdvancedSettings))
		names := make([]string, 0, len(in.NewAdvancedSettings))
		for k, v := range in.NewAdvancedSettings {
			prefs[k] = prefValue(v)
			names = append(names, k)
		}
		if err := c.SetPrefs(ctx, coll.RatingKey, prefs); err != nil {
			return nil, fmt.Errorf("error setting advanced parameters: %w", err)
		}
		slices.Sort(names)
		for _, k := range names {
			changes = append(changes, fmt.Sprintf("advanced setting '%s'", k))
		}
	}

	if len(changes) == 0 {
		return models.CollectionEditResponse{
			Status:  models.StatusSuccess,
			Updated: false,
			Message: "No changes made to the collection",
		}, nil
	}
	title := coll.Title
	if in.NewTitle != nil && *in.NewTitle != "" {
		title = *in.NewTitle
	}
	return models.CollectionEditResponse{
		Status:  models.StatusSuccess,
		Updated: true,
		Title:   title,
		Changes: changes,
	}, nil
}

// prefValue renders a JSON setting value the way the prefs endpoint
// expects: booleans as 1/0 and whole numbers without a fraction.
func prefValue(v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
