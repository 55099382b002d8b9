package users

type UserRepo interface {
	Upsert(user *User) error
	Delete(username string) error
	GetByUsername(username string) (*User, error)
	List() ([]*User, error)
	SetFavorites(username string, storyIDs []string) error
}
