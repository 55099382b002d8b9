package stories

// Repo is the service side storage of stories.
type Repo interface {
	// List returns every story, most recent first
	List() (Collection, error)

	// Get returns a single story
	Get(storyID string) (*Story, error)

	// Insert stores a new story, assigning its ID when empty
	Insert(story *Story) error

	// Update replaces the stored story with the same ID
	Update(story *Story) error

	// Delete removes a story by ID
	Delete(storyID string) error
}
