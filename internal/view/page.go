package view

import (
	"io"
	"strconv"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/fboessen22/jobdash/internal/dashboard"
)

// Form targets. Every post redirects back to PathIndex.
const (
	PathIndex           = "/"
	PathState           = "/api/state"
	PathFilter          = "/filter"
	PathPage            = "/page"
	PathRefresh         = "/refresh"
	PathAutoRefresh     = "/auto-refresh"
	PathPrefs           = "/prefs"
	PathStepsExpand     = "/steps/expand"
	PathStepsCollapse   = "/steps/collapse"
	PathHistoryExpand   = "/history/expand"
	PathHistoryCollapse = "/history/collapse"
	PathExternal        = "/external"
	PathExecution       = "/execution"
	PathScript          = "/script"
	PathModalClose      = "/modal/close"
)

var dayOptions = []int{0, 1, 3, 7, 14, 30}

func Render(w io.Writer, snap dashboard.Snapshot) error {
	return DashboardPage(snap).Render(w)
}

func DashboardPage(snap dashboard.Snapshot) Node {
	theme := "theme-light"
	if snap.Preferences.DarkMode {
		theme = "theme-dark"
	}
	return Doctype(HTML(
		Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text("Job Dashboard")),
			Link(Rel("icon"), Href("data:,")),
			StyleEl(Raw(stylesheet)),
		),
		Body(
			Class(theme),
			Data("state-url", PathState),
			Data("last-refresh", RefreshToken(snap.LastRefresh)),
			Data("alert-seq", strconv.FormatUint(snap.LastAlert.Seq, 10)),
			Data("sound", strconv.FormatBool(snap.Preferences.SoundEnabled)),
			Main(Class("shell"),
				topbar(snap),
				statsSection(snap),
				filterForm(snap),
				jobList(snap),
				paginationNav(snap.Window),
			),
			modalOverlay(snap.Modal),
			Script(Raw(pollScript)),
		),
	))
}

func postForm(action string, fields ...Node) Node {
	return Form(Method("post"), Action(action), Class("inline"), Group(fields))
}

func hidden(name, value string) Node {
	return Input(Type("hidden"), Name(name), Value(value))
}

func submit(label, class string) Node {
	return Button(Type("submit"), Class(class), Text(label))
}

func topbar(snap dashboard.Snapshot) Node {
	refresh := snap.Refresh
	autoLabel := "Start auto-refresh"
	if refresh.Enabled {
		autoLabel = "Stop auto-refresh"
	}
	countdown := ""
	if refresh.Enabled && refresh.Countdown > 0 {
		countdown = "(" + strconv.Itoa(refresh.Countdown) + "s)"
	}
	darkLabel := "Dark mode"
	if snap.Preferences.DarkMode {
		darkLabel = "Light mode"
	}
	soundLabel := "Sound off"
	if !snap.Preferences.SoundEnabled {
		soundLabel = "Sound on"
	}
	prefs := snap.Preferences

	return Header(Class("topbar"),
		Div(
			H1(Class("page-title"), Text("Job Dashboard")),
			P(Class("muted small"),
				Text("Last refresh: "),
				Span(ID("last-refresh"), Text(clockText(snap.LastRefresh))),
			),
		),
		Div(Class("toolbar"),
			postForm(PathRefresh, submit("Refresh", "btn btn-primary")),
			postForm(PathAutoRefresh,
				hidden("enabled", strconv.FormatBool(!refresh.Enabled)),
				submit(autoLabel, "btn"),
				Span(ID("refresh-countdown"), Class("muted small"), Text(countdown)),
			),
			postForm(PathPrefs,
				hidden("dark_mode", strconv.FormatBool(!prefs.DarkMode)),
				hidden("sound_enabled", strconv.FormatBool(prefs.SoundEnabled)),
				submit(darkLabel, "btn"),
			),
			postForm(PathPrefs,
				hidden("dark_mode", strconv.FormatBool(prefs.DarkMode)),
				hidden("sound_enabled", strconv.FormatBool(!prefs.SoundEnabled)),
				submit(soundLabel, "btn"),
			),
		),
	)
}

func statsSection(snap dashboard.Snapshot) Node {
	st := snap.Stats
	return Section(Class("stats"),
		If(snap.StatsStatus.State == dashboard.PanelFailed,
			Div(Class("alert alert-warning"), Text("Could not load stats: "+snap.StatsStatus.Error)),
		),
		Div(Class("stats-grid"),
			statCard("stat-failed", formatCount(st.Failed), "Failed Jobs"),
			statCard("stat-succeeded", formatCount(st.Succeeded), "Succeeded Jobs"),
			statCard("stat-rate", st.RateText()+"%", "Success Rate"),
		),
		If(snap.AvgDuration != "",
			P(Class("muted small"), Text("Average duration: "+snap.AvgDuration)),
		),
	)
}

func statCard(class, value, label string) Node {
	return Div(Class("card stat-card "+class),
		Div(Class("stat-value"), Text(value)),
		Div(Class("stat-label"), Text(label)),
	)
}

func filterForm(snap dashboard.Snapshot) Node {
	f := snap.Filter
	return Form(Method("post"), Action(PathFilter), Class("filters card"),
		If(snap.CategoriesStatus.State == dashboard.PanelFailed,
			Div(Class("alert alert-warning"), Text("Could not load categories: "+snap.CategoriesStatus.Error)),
		),
		Label(Text("Category"),
			Select(Name("category"), categoryOptions(snap.Categories)),
		),
		Label(Text("Days"),
			Select(Name("days"), dayOptionNodes(f.DaysWindow)),
		),
		Label(Text("Search"),
			Input(Type("search"), Name("search"), Value(f.SearchTerm), Placeholder("Job name")),
		),
		Label(Class("check"),
			Input(Type("checkbox"), Name("failed_only"), Value("true"), If(f.ShowOnlyFailed, Checked())),
			Text("Show only failed"),
		),
		submit("Apply", "btn btn-primary"),
	)
}

func categoryOptions(options []dashboard.CategoryOption) Node {
	return Map(options, func(o dashboard.CategoryOption) Node {
		return Option(Value(o.Value), If(o.Selected, Selected()), Text(o.Label))
	})
}

func dayOptionNodes(current int) Node {
	days := dayOptions
	found := false
	for _, d := range days {
		if d == current {
			found = true
			break
		}
	}
	if !found {
		days = append(append([]int(nil), days...), current)
	}
	return Map(days, func(d int) Node {
		return Option(Value(strconv.Itoa(d)), If(d == current, Selected()), Text(dayLabel(d)))
	})
}

func dayLabel(days int) string {
	switch days {
	case 0:
		return "Latest run"
	case 1:
		return "Last 24 hours"
	default:
		return "Last " + strconv.Itoa(days) + " days"
	}
}

func paginationNav(w dashboard.PageWindow) Node {
	if !w.Visible {
		return nil
	}
	items := []Node{pageLink("Previous", w.Current-1, !w.HasPrev, false)}
	if w.ShowFirst {
		items = append(items, pageLink("1", 1, false, false))
		if w.LeadingEllipsis {
			items = append(items, Li(Class("page-item disabled"), Span(Text("..."))))
		}
	}
	for _, p := range w.Pages {
		items = append(items, pageLink(strconv.Itoa(p), p, false, p == w.Current))
	}
	if w.ShowLast {
		if w.TrailingEllipsis {
			items = append(items, Li(Class("page-item disabled"), Span(Text("..."))))
		}
		items = append(items, pageLink(strconv.Itoa(w.TotalPages), w.TotalPages, false, false))
	}
	items = append(items, pageLink("Next", w.Current+1, !w.HasNext, false))
	return Nav(Class("pagination"), Ul(Group(items)))
}

func pageLink(label string, page int, disabled, active bool) Node {
	class := "page-item"
	if active {
		class += " active"
	}
	if disabled {
		return Li(Class(class+" disabled"), Span(Text(label)))
	}
	return Li(Class(class),
		postForm(PathPage, hidden("page", strconv.Itoa(page)), submit(label, "page-link")),
	)
}
