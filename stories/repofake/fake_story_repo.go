package fakestoryrepo

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-story-client/internal/errors"
	"github.com/jrsteele09/go-story-client/stories"
)

var _ stories.Repo = (*FakeStoryRepo)(nil)

type FakeStoryRepo struct {
	stories map[string]*stories.Story
	lock    sync.RWMutex
}

func NewFakeStoryRepo() stories.Repo {
	return &FakeStoryRepo{
		stories: make(map[string]*stories.Story),
	}
}

func (sr *FakeStoryRepo) List() (stories.Collection, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	list := make(stories.Collection, 0, len(sr.stories))
	for _, s := range sr.stories {
		list = append(list, *s)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (sr *FakeStoryRepo) Get(storyID string) (*stories.Story, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	s, ok := sr.stories[storyID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	story := *s
	return &story, nil
}

func (sr *FakeStoryRepo) Insert(story *stories.Story) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if story.ID == "" {
		story.ID = uuid.New().String()
	}
	stored := *story
	sr.stories[story.ID] = &stored
	return nil
}

func (sr *FakeStoryRepo) Update(story *stories.Story) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if _, ok := sr.stories[story.ID]; !ok {
		return apperrors.ErrNotFound
	}
	stored := *story
	sr.stories[story.ID] = &stored
	return nil
}

func (sr *FakeStoryRepo) Delete(storyID string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if _, ok := sr.stories[storyID]; !ok {
		return apperrors.ErrNotFound
	}
	delete(sr.stories, storyID)
	return nil
}
