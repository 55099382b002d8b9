package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Account routes
	RouteLogin  = "/login"
	RouteSignup = "/signup"
	RouteUser   = "/users/{username}"

	// Story routes
	RouteStories = "/stories"
	RouteStory   = "/stories/{storyId}"

	// Favorite routes
	RouteFavorite = "/users/{username}/favorites/{storyId}"
)
