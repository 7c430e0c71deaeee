package view

import (
	"strconv"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/fboessen22/jobdash/internal/dashboard"
	"github.com/fboessen22/jobdash/internal/protocol"
)

func jobList(snap dashboard.Snapshot) Node {
	switch snap.JobsStatus.State {
	case dashboard.PanelFailed:
		return Section(Class("jobs"),
			Div(Class("alert alert-danger"), Text("Error loading jobs: "+snap.JobsStatus.Error)),
			jobCards(snap.Jobs),
		)
	case dashboard.PanelLoading, dashboard.PanelIdle:
		if len(snap.Jobs) == 0 {
			return Section(Class("jobs"), Div(Class("alert alert-info"), Text("Loading jobs...")))
		}
	}
	if len(snap.Jobs) == 0 {
		return Section(Class("jobs"), Div(Class("alert alert-info"), Text("No jobs found matching the current filters.")))
	}
	return Section(Class("jobs"),
		If(snap.TotalPages > 1,
			Div(Class("alert alert-info"), Text(showingText(snap))),
		),
		jobCards(snap.Jobs),
	)
}

func showingText(snap dashboard.Snapshot) string {
	return "Showing " + strconv.Itoa(snap.FirstShown) + "-" + strconv.Itoa(snap.LastShown) +
		" of " + strconv.Itoa(snap.TotalFiltered) + " executions"
}

func jobCards(cards []dashboard.JobCard) Node {
	return Map(cards, JobCardNode)
}

// JobCardNode renders one job row with its open step and history panels.
func JobCardNode(card dashboard.JobCard) Node {
	return Div(Class("card job-card"),
		Div(Class("job-row"),
			Div(Class("job-name"),
				H2(Text(card.JobName)),
				Span(Class("muted small"), Text(orNA(card.CategoryName))),
			),
			Div(Span(Class(runStatusClass(card.RunCategory)), Text(card.Status))),
			Div(Class("job-timing"),
				Span(Class("small"), Text(card.LastRun)),
				If(card.DurationFormatted != "",
					Span(Class("muted small"), Text("Duration: "+card.DurationFormatted), trendBadge(card.JobRecord)),
				),
			),
			Div(Class("job-actions"),
				stepsToggle(card),
				historyToggle(card),
			),
		),
		If(card.Message != "" && card.RunCategory == protocol.RunCategoryFailed,
			Div(Class("alert alert-danger small"),
				Strong(Text("Error: ")),
				Text(Truncate(card.Message, jobMessageLimit)),
			),
		),
		openPanels(card),
	)
}

func openPanels(card dashboard.JobCard) Node {
	var nodes Group
	if card.Steps != nil {
		nodes = append(nodes, StepsPanel(*card.Steps))
	}
	if card.History != nil {
		nodes = append(nodes, HistoryPanelNode(*card.History))
	}
	return nodes
}

func trendBadge(rec protocol.JobRecord) Node {
	switch rec.DurationTrend {
	case "slower":
		return Span(Class("trend trend-slower"), Title("Slower than average by "+rec.DurationDiff), Text(" ▲ "+rec.DurationDiff))
	case "faster":
		return Span(Class("trend trend-faster"), Title("Faster than average by "+rec.DurationDiff), Text(" ▼ "+rec.DurationDiff))
	default:
		return nil
	}
}

func stepsToggle(card dashboard.JobCard) Node {
	if !card.CanDrillDown {
		return Button(Type("button"), Class("btn btn-small"), Disabled(), Text("View Steps"))
	}
	if card.Steps != nil {
		return postForm(PathStepsCollapse,
			hidden("instance_id", card.InstanceID.String()),
			submit("Hide Steps", "btn btn-small"),
		)
	}
	return postForm(PathStepsExpand,
		hidden("instance_id", card.InstanceID.String()),
		submit("View Steps", "btn btn-small"),
	)
}

func historyToggle(card dashboard.JobCard) Node {
	if card.History != nil {
		return postForm(PathHistoryCollapse,
			hidden("job", card.JobName),
			submit("Hide History", "btn btn-small"),
		)
	}
	return postForm(PathHistoryExpand,
		hidden("job", card.JobName),
		submit("History", "btn btn-small"),
	)
}

// StepsPanel renders the step table of one job run.
func StepsPanel(panel dashboard.StepPanel) Node {
	switch panel.Status.State {
	case dashboard.PanelLoading:
		return Div(Class("panel"), Text("Loading steps..."))
	case dashboard.PanelFailed:
		return Div(Class("panel alert alert-danger"), Text("Error loading steps: "+panel.Status.Error))
	case dashboard.PanelEmpty:
		return Div(Class("panel muted"), Text("No step information available."))
	}
	return Div(Class("panel"),
		Table(Class("table"),
			THead(Tr(Th(Text("Step")), Th(Text("Name")), Th(Text("Status")), Th(Text("Duration")), Th(Text("Message")), Th())),
			TBody(Map(panel.Steps, func(step dashboard.StepView) Node {
				return stepRow(panel.InstanceID, step)
			})),
		),
	)
}

func stepRow(id protocol.Opaque, step dashboard.StepView) Node {
	msg := step.Message
	if msg == "" {
		msg = "N/A"
	}
	return Tr(
		Td(Text(step.Label)),
		Td(Text(step.StepName)),
		Td(Span(Class(stepStatusClass(step.StepRecord)), Text(step.Status))),
		Td(Text(orNA(step.DurationFormatted))),
		Td(Class("message-cell"), Title(step.Message), Text(Truncate(msg, stepMessageLimit))),
		Td(Class("step-actions"),
			If(step.HasExternal, postForm(PathExternal,
				hidden("instance_id", id.String()),
				hidden("step_id", strconv.Itoa(step.StepID)),
				submit("Package Log", "btn btn-small"),
			)),
			If(step.HasScript, postForm(PathScript,
				hidden("instance_id", id.String()),
				hidden("step_id", strconv.Itoa(step.StepID)),
				submit("Script", "btn btn-small"),
			)),
		),
	)
}

// HistoryPanelNode renders the past runs of one job.
func HistoryPanelNode(panel dashboard.HistoryPanel) Node {
	switch panel.Status.State {
	case dashboard.PanelLoading:
		return Div(Class("panel"), Text("Loading history..."))
	case dashboard.PanelFailed:
		return Div(Class("panel alert alert-danger"), Text("Error loading history: "+panel.Status.Error))
	case dashboard.PanelEmpty:
		return Div(Class("panel muted"), Text("No history available."))
	}
	return Div(Class("panel history"),
		Map(panel.Runs, func(run dashboard.HistoryRun) Node {
			return Div(Class("history-run"),
				Div(Class("history-head"),
					Strong(Text(orNA(run.RunTimestamp))),
					Span(Class(runStatusClass(run.Category())), Text(run.Status())),
					runDuration(run),
				),
				If(len(run.Steps) > 0, Table(Class("table"),
					TBody(Map(run.Steps, historyStepRow)),
				)),
			)
		}),
	)
}

func runDuration(run dashboard.HistoryRun) Node {
	if run.Outcome == nil || run.Outcome.DurationFormatted == "" {
		return nil
	}
	return Span(Class("muted small"), Text("Duration: "+run.Outcome.DurationFormatted))
}

func historyStepRow(rec protocol.HistoryRecord) Node {
	status := rec.StatusText
	if status == "" {
		status = protocol.RunStatusText(rec.RunStatus)
	}
	msg := rec.Message
	if msg == "" {
		msg = "N/A"
	}
	return Tr(
		Td(Text("Step "+strconv.Itoa(rec.StepID))),
		Td(Text(rec.StepName)),
		Td(Span(Class(runStatusClass(protocol.ClassifyRunStatus(rec.RunStatus))), Text(status))),
		Td(Text(orNA(rec.DurationFormatted))),
		Td(Class("message-cell"), Title(rec.Message), Text(Truncate(msg, historyMessageLimit))),
	)
}
