package view

import (
	"strconv"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/fboessen22/jobdash/internal/dashboard"
	"github.com/fboessen22/jobdash/internal/protocol"
)

func modalOverlay(m dashboard.Modal) Node {
	if !m.Open() {
		return nil
	}
	return Div(Class("modal-backdrop"), ID("modal"),
		Div(Class("modal card"), Role("dialog"), Aria("modal", "true"),
			Div(Class("modal-head"),
				H2(Text(m.Title)),
				postForm(PathModalClose, submit("Close", "btn btn-small")),
			),
			Div(Class("modal-body"), ModalBody(m)),
		),
	)
}

// ModalBody renders the content of the open modal.
func ModalBody(m dashboard.Modal) Node {
	if m.Status.State == dashboard.PanelLoading {
		return Div(Class("muted"), Text("Loading..."))
	}
	switch m.Kind {
	case dashboard.ModalScript:
		return scriptBody(m)
	case dashboard.ModalPackageExecutions:
		return packageBody(m)
	case dashboard.ModalExecution:
		if m.Execution == nil {
			return modalError(m.Status)
		}
		return executionBody(*m.Execution)
	}
	return nil
}

func modalError(st dashboard.PanelStatus) Node {
	msg := st.Error
	if msg == "" {
		msg = "unknown error"
	}
	return Div(Class("alert alert-danger"), Text("Error: "+msg))
}

func scriptBody(m dashboard.Modal) Node {
	if m.Script == nil {
		return modalError(m.Status)
	}
	sc := m.Script
	return Div(
		P(Class("muted small"), Text(sc.JobName+" / Step "+strconv.Itoa(sc.StepID))),
		Pre(Class("script"), Code(Text(sc.Command))),
	)
}

func packageBody(m dashboard.Modal) Node {
	if m.Lookup == nil || m.Status.State == dashboard.PanelFailed {
		return modalError(m.Status)
	}
	lk := m.Lookup
	return Div(
		If(lk.PackagePath != "", P(Class("muted small"), Text("Package: "+lk.PackagePath))),
		If(lk.Notice != "", Div(Class("alert alert-warning"), Text(lk.Notice))),
		If(len(lk.Candidates) > 0, Table(Class("table"),
			THead(Tr(Th(Text("Execution")), Th(Text("Package")), Th(Text("Status")), Th(Text("Start")), Th(Text("End")), Th())),
			TBody(Map(lk.Candidates, func(ex protocol.ExternalExecution) Node {
				return candidateRow(lk.StepName, ex)
			})),
		)),
	)
}

func candidateRow(stepName string, ex protocol.ExternalExecution) Node {
	return Tr(
		Td(Text(ex.ExecutionID.String())),
		Td(Text(orNA(ex.PackageName))),
		Td(Span(Class(externalStatusClass(ex.Category())), Text(ex.DisplayStatus()))),
		Td(Text(orNA(ex.StartTime))),
		Td(Text(orNA(ex.EndTime))),
		Td(postForm(PathExecution,
			hidden("execution_id", ex.ExecutionID.String()),
			hidden("step_name", stepName),
			hidden("show_all", "false"),
			submit("View", "btn btn-small"),
		)),
	)
}

func executionBody(panel dashboard.ExecutionPanel) Node {
	if panel.Status.State == dashboard.PanelFailed {
		return modalError(panel.Status)
	}
	ov := panel.Overview
	toggleLabel := "Show all messages"
	if panel.ShowAll {
		toggleLabel = "Show warnings and errors only"
	}
	return Div(
		Table(Class("table overview"),
			TBody(
				Tr(Th(Text("Execution")), Td(Text(panel.ExecutionID.String()))),
				Tr(Th(Text("Folder")), Td(Text(orNA(ov.FolderName)))),
				Tr(Th(Text("Project")), Td(Text(orNA(ov.ProjectName)))),
				Tr(Th(Text("Package")), Td(Text(orNA(ov.PackageName)))),
				Tr(Th(Text("Status")), Td(Span(Class(externalStatusClass(ov.Category())), Text(ov.DisplayStatus())))),
				Tr(Th(Text("Start")), Td(Text(orNA(ov.StartTime)))),
				Tr(Th(Text("End")), Td(Text(orNA(ov.EndTime)))),
			),
		),
		postForm(PathExecution,
			hidden("execution_id", panel.ExecutionID.String()),
			hidden("step_name", panel.StepName),
			hidden("show_all", strconv.FormatBool(!panel.ShowAll)),
			submit(toggleLabel, "btn btn-small"),
		),
		messageList(panel),
	)
}

func messageList(panel dashboard.ExecutionPanel) Node {
	if len(panel.Messages) == 0 {
		if panel.ShowAll {
			return P(Class("muted"), Text("No messages recorded for this execution."))
		}
		return P(Class("muted"), Text("No warnings or errors for this execution."))
	}
	return Ul(Class("messages"),
		Map(panel.Messages, func(msg protocol.ExecutionMessage) Node {
			return Li(Class(messageClass(msg.Level())),
				Span(Class("message-time"), Text(msg.ClockTime())),
				Span(Class("message-type"), Text(msg.TypeText())),
				Span(Class("message-text"), Text(msg.Message)),
			)
		}),
	)
}
