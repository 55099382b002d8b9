// Package render prints client snapshots for a terminal.
package render

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jrsteele09/go-story-client/client"
	"github.com/jrsteele09/go-story-client/favorites"
	"github.com/jrsteele09/go-story-client/sessions"
	"github.com/jrsteele09/go-story-client/stories"
)

// List selects one of the three story views.
type List string

const (
	ListAll       List = "all"
	ListOwn       List = "own"
	ListFavorites List = "favorites"
)

// Empty list messages
const (
	NoStories   = "No stories yet."
	NoOwn       = "No story created yet!"
	NoFavorites = "No favorites added!"
)

const dateLayout = "2006-01-02"

// ParseList accepts the list names used on the command line.
func ParseList(name string) (List, error) {
	switch List(strings.ToLower(strings.TrimSpace(name))) {
	case "", ListAll:
		return ListAll, nil
	case ListOwn, "mine":
		return ListOwn, nil
	case ListFavorites, "favs", "favourites":
		return ListFavorites, nil
	default:
		return "", fmt.Errorf("unknown list %q: expected all, own or favorites", name)
	}
}

type styles struct {
	heading lipgloss.Style
	title   lipgloss.Style
	host    lipgloss.Style
	meta    lipgloss.Style
	starOn  lipgloss.Style
	starOff lipgloss.Style
	empty   lipgloss.Style
	panel   lipgloss.Style
	label   lipgloss.Style
	errText lipgloss.Style
}

// Printer writes styled output. Colours are dropped when out is not a terminal.
type Printer struct {
	out    io.Writer
	styles styles
}

func New(out io.Writer) *Printer {
	r := lipgloss.NewRenderer(out)
	muted := lipgloss.AdaptiveColor{Light: "240", Dark: "245"}
	return &Printer{
		out: out,
		styles: styles{
			heading: r.NewStyle().Bold(true).Underline(true),
			title:   r.NewStyle().Bold(true),
			host:    r.NewStyle().Foreground(muted),
			meta:    r.NewStyle().Foreground(muted),
			starOn:  r.NewStyle().Foreground(lipgloss.Color("#f39c12")).Bold(true),
			starOff: r.NewStyle().Foreground(muted),
			empty:   r.NewStyle().Italic(true).Foreground(muted),
			panel:   r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
			label:   r.NewStyle().Bold(true).Width(9),
			errText: r.NewStyle().Foreground(lipgloss.Color("#d16d7a")).Bold(true),
		},
	}
}

// Stories prints one of the views of snap. Stars are only shown to a logged in user.
func (p *Printer) Stories(list List, snap client.Snapshot) {
	var (
		heading string
		items   stories.Collection
		empty   string
	)
	switch list {
	case ListOwn:
		heading, items, empty = "My stories", snap.Views.Own, NoOwn
	case ListFavorites:
		heading, items, empty = "Favorites", snap.Views.Favorites, NoFavorites
	default:
		heading, items, empty = "Stories", snap.Views.All, NoStories
	}

	fmt.Fprintln(p.out, p.styles.heading.Render(heading))
	if len(items) == 0 {
		fmt.Fprintln(p.out, p.styles.empty.Render(empty))
		return
	}
	for _, story := range items {
		prefix := ""
		if snap.Authenticated() {
			prefix = p.star(snap.Star(story.ID)) + " "
		}
		fmt.Fprintf(p.out, "%s%s %s\n", prefix, p.styles.title.Render(story.Title), p.styles.host.Render("("+HostName(story.URL)+")"))
		fmt.Fprintf(p.out, "  %s\n", p.styles.meta.Render(fmt.Sprintf("by %s | posted by %s | %s", story.Author, story.Username, story.ID)))
	}
}

// Story prints a single story, e.g. after a submission.
func (p *Printer) Story(story stories.Story) {
	fmt.Fprintf(p.out, "%s %s\n", p.styles.title.Render(story.Title), p.styles.host.Render("("+HostName(story.URL)+")"))
	fmt.Fprintf(p.out, "  %s\n", p.styles.meta.Render(fmt.Sprintf("by %s | id %s", story.Author, story.ID)))
}

// Profile prints the user info panel.
func (p *Printer) Profile(session *sessions.Session) {
	if session == nil {
		fmt.Fprintln(p.out, p.styles.empty.Render("Not logged in."))
		return
	}
	rows := []string{
		p.styles.label.Render("Name") + session.Name,
		p.styles.label.Render("Username") + session.Username,
		p.styles.label.Render("Joined") + session.CreatedAt.Format(dateLayout),
	}
	fmt.Fprintln(p.out, p.styles.panel.Render(strings.Join(rows, "\n")))
}

// Star prints the star of a single story.
func (p *Printer) Star(storyID string, star favorites.Star) {
	fmt.Fprintf(p.out, "%s %s\n", p.star(star), storyID)
}

func (p *Printer) Message(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) Error(err error) {
	fmt.Fprintln(p.out, p.styles.errText.Render("Error: "+err.Error()))
}

func (p *Printer) star(star favorites.Star) string {
	if star == favorites.Fas {
		return p.styles.starOn.Render("★")
	}
	return p.styles.starOff.Render("☆")
}

// HostName returns the host of a story link without the scheme or a leading "www.".
func HostName(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		host := strings.TrimSpace(link)
		if i := strings.Index(host, "://"); i >= 0 {
			host = host[i+3:]
		}
		host, _, _ = strings.Cut(host, "/")
		return strings.TrimPrefix(host, "www.")
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
