package database

import (
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"path"

	"novel-reader/shared/interfaces"
	"novel-reader/shared/models"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// SampleFixtures - встроенные истории для STORAGE_DRIVER=memory и тестов.
//
//go:embed fixtures/*.yaml
var SampleFixtures embed.FS

// GraphFixture - одна история в плоском виде, готовая к записи через GraphWriter.
type GraphFixture struct {
	Story   models.StoryMetadata
	Pages   []models.Page
	Choices []models.Choice
}

type fixtureFile struct {
	Story models.StoryMetadata `yaml:"story"`
	Pages []fixturePage        `yaml:"pages"`
}

type fixturePage struct {
	models.Page `yaml:",inline"`
	Choices     []models.Choice `yaml:"choices"`
}

// ParseGraphFixture читает YAML-описание истории и проверяет целостность графа.
// StoryID, FromPageID и DisplayOrder проставляются из структуры файла.
func ParseGraphFixture(r io.Reader) (*GraphFixture, error) {
	var file fixtureFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	f := &GraphFixture{Story: file.Story}
	if f.Story.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: story id is required", models.ErrBadRequest)
	}
	if len(file.Pages) == 0 {
		return nil, fmt.Errorf("%w: story %s has no pages", models.ErrBadRequest, f.Story.ID)
	}

	pageIDs := make(models.IDSet, len(file.Pages))
	for _, p := range file.Pages {
		if p.ID == uuid.Nil || !pageIDs.Add(p.ID) {
			return nil, fmt.Errorf("%w: missing or duplicate page id %s", models.ErrBadRequest, p.ID)
		}
	}

	choiceIDs := models.NewIDSet()
	for _, p := range file.Pages {
		page := p.Page
		page.StoryID = f.Story.ID
		if page.IsEnding != (len(p.Choices) == 0) {
			return nil, fmt.Errorf("%w: page %s: is_ending must be set exactly when the page has no choices", models.ErrBadRequest, page.ID)
		}
		f.Pages = append(f.Pages, page)

		for i, c := range p.Choices {
			if c.ID == uuid.Nil || !choiceIDs.Add(c.ID) {
				return nil, fmt.Errorf("%w: missing or duplicate choice id %s", models.ErrBadRequest, c.ID)
			}
			if !pageIDs.Has(c.ToPageID) {
				return nil, fmt.Errorf("%w: choice %s points to unknown page %s", models.ErrBadRequest, c.ID, c.ToPageID)
			}
			if c.Cost < 0 || (!c.IsPremium && c.Cost != 0) {
				return nil, fmt.Errorf("%w: choice %s has invalid cost %d", models.ErrBadRequest, c.ID, c.Cost)
			}
			c.FromPageID = page.ID
			c.DisplayOrder = i
			f.Choices = append(f.Choices, c)
		}
	}
	if f.Story.TotalPages == 0 {
		f.Story.TotalPages = len(f.Pages)
	}
	return f, nil
}

// LoadGraphFixtures разбирает все *.yaml файлы каталога dir в fsys.
func LoadGraphFixtures(fsys fs.FS, dir string) ([]*GraphFixture, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	out := make([]*GraphFixture, 0, len(names))
	for _, name := range names {
		file, err := fsys.Open(name)
		if err != nil {
			return nil, err
		}
		f, err := ParseGraphFixture(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, f)
	}
	return out, nil
}

// SeedGraphs записывает фикстуры через w.
func SeedGraphs(ctx context.Context, w interfaces.GraphWriter, fixtures []*GraphFixture) error {
	for _, f := range fixtures {
		if err := w.SaveStoryGraph(ctx, f.Story, f.Pages, f.Choices); err != nil {
			return fmt.Errorf("seed story %s: %w", f.Story.ID, err)
		}
	}
	return nil
}
