package tasks

import (
	"encoding/xml"
	"io"
	"strconv"
)

// BaseTrigger holds the fields common to every trigger type.
type BaseTrigger struct {
	ID                  string
	StartBoundary       string
	EndBoundary         string
	Enabled             bool
	ExecutionTimeLimit  string
	RepetitionInterval  string
	RepetitionDuration  string
	RepetitionStopAtEnd bool
}

type BootTrigger struct {
	Common BaseTrigger
	Delay  string
}

type IdleTrigger struct {
	Common BaseTrigger
}

type TimeTrigger struct {
	Common      BaseTrigger
	RandomDelay string
}

type EventTrigger struct {
	Common              BaseTrigger
	Subscription        []string
	Delay               string
	NumberOfOccurrences int
	PeriodOfOccurrence  string
	MatchingElement     string
	ValueQueries        []string
}

type LogonTrigger struct {
	Common BaseTrigger
	UserID string
	Delay  string
}

type SessionTrigger struct {
	Common      BaseTrigger
	Delay       string
	UserID      string
	StateChange string
}

type ByDay struct {
	DaysInterval int
}

type ByWeek struct {
	WeeksInterval int
	DaysOfWeek    []string
}

type ByMonth struct {
	DaysOfMonth []string
	Months      []string
}

type ByMonthDayWeek struct {
	Weeks      []string
	DaysOfWeek []string
	Months     []string
}

type CalendarTrigger struct {
	Common                   BaseTrigger
	RandomDelay              string
	ScheduleByDay            *ByDay
	ScheduleByWeek           *ByWeek
	ScheduleByMonth          *ByMonth
	ScheduleByMonthDayOfWeek *ByMonthDayWeek
}

type WnfTrigger struct {
	Common     BaseTrigger
	Delay      string
	StateName  string
	Data       string
	DataOffset string
}

// Triggers is the decoded <Triggers> element of a Task Scheduler XML
// definition, grouped by trigger type the same way the original parser
// buckets them.
type Triggers struct {
	Boot         []BootTrigger
	Registration []BootTrigger
	Idle         []IdleTrigger
	Time         []TimeTrigger
	Event        []EventTrigger
	Logon        []LogonTrigger
	Session      []SessionTrigger
	Calendar     []CalendarTrigger
	Wnf          []WnfTrigger
}

// Action is one <Exec> entry of the task's <Actions> element. ComHandler,
// SendEmail and ShowMessage actions are skipped and produce no Action.
type Action struct {
	Type       string
	Command    string
	Arguments  string
	WorkingDir string
}

// Principal is the task's <Principals>/<Principal> security context.
type Principal struct {
	ID        string
	UserID    string
	LogonType string
	RunLevel  string
}

// RegistrationInfo is the task's <RegistrationInfo> block.
type RegistrationInfo struct {
	Date        string
	Author      string
	Description string
	URI         string
}

// Task is a fully decoded Task Scheduler XML task definition.
type Task struct {
	Registration RegistrationInfo
	Triggers     Triggers
	Actions      []Action
	Principal    Principal
	Settings     map[string]string
}

// ParseTask decodes a Task Scheduler XML task definition by streaming
// through its top-level sections.
func ParseTask(r io.Reader) (Task, error) {
	dec := xml.NewDecoder(r)
	var task Task
	task.Settings = map[string]string{}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return task, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "RegistrationInfo":
			task.Registration = parseRegistrationInfo(dec)
		case "Triggers":
			task.Triggers = parseTriggers(dec)
		case "Actions":
			task.Actions = parseActions(dec)
		case "Principal":
			task.Principal = parsePrincipal(dec)
		case "Settings":
			task.Settings = parseSettings(dec)
		}
	}
	return task, nil
}

func readText(dec *xml.Decoder) string {
	var text string
	for {
		tok, err := dec.Token()
		if err != nil {
			return text
		}
		switch t := tok.(type) {
		case xml.CharData:
			text += string(t)
		case xml.EndElement:
			return text
		}
	}
}

func parseRegistrationInfo(dec *xml.Decoder) RegistrationInfo {
	var info RegistrationInfo
	for {
		tok, err := dec.Token()
		if err != nil {
			return info
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "Date":
				info.Date = readText(dec)
			case "Author":
				info.Author = readText(dec)
			case "Description":
				info.Description = readText(dec)
			case "URI":
				info.URI = readText(dec)
			}
		case xml.EndElement:
			if t.Name.Local == "RegistrationInfo" {
				return info
			}
		}
	}
}

func parsePrincipal(dec *xml.Decoder) Principal {
	var p Principal
	for {
		tok, err := dec.Token()
		if err != nil {
			return p
		}
		switch t := tok.(type) {
		case xml.StartElement:
			for _, a := range t.Attr {
				if a.Name.Local == "id" {
					p.ID = a.Value
				}
			}
			switch t.Name.Local {
			case "UserId":
				p.UserID = readText(dec)
			case "LogonType":
				p.LogonType = readText(dec)
			case "RunLevel":
				p.RunLevel = readText(dec)
			}
		case xml.EndElement:
			if t.Name.Local == "Principal" {
				return p
			}
		}
	}
}

func parseSettings(dec *xml.Decoder) map[string]string {
	out := map[string]string{}
	depth := 0
	var current string
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				current = t.Name.Local
			}
			depth++
		case xml.CharData:
			if current != "" {
				out[current] += string(t)
			}
		case xml.EndElement:
			depth--
			if t.Name.Local == "Settings" {
				return out
			}
			if depth == 0 {
				current = ""
			}
		}
	}
}

func parseActions(dec *xml.Decoder) []Action {
	var actions []Action
	for {
		tok, err := dec.Token()
		if err != nil {
			return actions
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "Exec" {
				actions = append(actions, parseExecAction(dec))
			}
		case xml.EndElement:
			if t.Name.Local == "Actions" {
				return actions
			}
		}
	}
}

func parseExecAction(dec *xml.Decoder) Action {
	a := Action{Type: "Exec"}
	for {
		tok, err := dec.Token()
		if err != nil {
			return a
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "Command":
				a.Command = readText(dec)
			case "Arguments":
				a.Arguments = readText(dec)
			case "WorkingDirectory":
				a.WorkingDir = readText(dec)
			}
		case xml.EndElement:
			if t.Name.Local == "Exec" {
				return a
			}
		}
	}
}

// parseTriggers mirrors process_trigger's dispatch: read top-level child
// elements of <Triggers> and hand each off to its type-specific decoder.
func parseTriggers(dec *xml.Decoder) Triggers {
	var info Triggers
	for {
		tok, err := dec.Token()
		if err != nil {
			return info
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "BootTrigger":
				info.Boot = append(info.Boot, processBoot(dec, "BootTrigger"))
			case "RegistrationTrigger":
				info.Registration = append(info.Registration, processBoot(dec, "RegistrationTrigger"))
			case "IdleTrigger":
				info.Idle = append(info.Idle, processIdle(dec))
			case "TimeTrigger":
				info.Time = append(info.Time, processTime(dec))
			case "EventTrigger":
				info.Event = append(info.Event, processEvent(dec))
			case "LogonTrigger":
				info.Logon = append(info.Logon, processLogon(dec))
			case "SessionStateChangeTrigger":
				info.Session = append(info.Session, processSession(dec))
			case "CalendarTrigger":
				info.Calendar = append(info.Calendar, processCalendar(dec))
			case "WnfStateChangeTrigger":
				info.Wnf = append(info.Wnf, processNotification(dec))
			}
		case xml.EndElement:
			if t.Name.Local == "Triggers" {
				return info
			}
		}
	}
}

// processCommon recognizes the base-trigger fields shared by every
// trigger type; callers invoke it from their own element-dispatch loop.
func processCommon(common *BaseTrigger, name string, dec *xml.Decoder) bool {
	switch name {
	case "id":
		common.ID = readText(dec)
	case "StartBoundary":
		common.StartBoundary = readText(dec)
	case "EndBoundary":
		common.EndBoundary = readText(dec)
	case "ExecutionTimeLimit":
		common.ExecutionTimeLimit = readText(dec)
	case "Enabled":
		common.Enabled, _ = strconv.ParseBool(readText(dec))
	case "Repetition":
		processRepetition(common, dec)
	default:
		return false
	}
	return true
}

func processRepetition(common *BaseTrigger, dec *xml.Decoder) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "Interval":
				common.RepetitionInterval = readText(dec)
			case "Duration":
				common.RepetitionDuration = readText(dec)
			case "StopAtDurationEnd":
				common.RepetitionStopAtEnd, _ = strconv.ParseBool(readText(dec))
			}
		case xml.EndElement:
			if t.Name.Local == "Repetition" {
				return
			}
		}
	}
}

func processBoot(dec *xml.Decoder, closing string) BootTrigger {
	var boot BootTrigger
	for {
		tok, err := dec.Token()
		if err != nil {
			return boot
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "Delay" {
				boot.Delay = readText(dec)
				continue
			}
			processCommon(&boot.Common, t.Name.Local, dec)
		case xml.EndElement:
			if t.Name.Local == closing {
				return boot
			}
		}
	}
}

func processIdle(dec *xml.Decoder) IdleTrigger {
	var idle IdleTrigger
	for {
		tok, err := dec.Token()
		if err != nil {
			return idle
		}
		switch t := tok.(type) {
		case xml.StartElement:
			processCommon(&idle.Common, t.Name.Local, dec)
		case xml.EndElement:
			if t.Name.Local == "IdleTrigger" {
				return idle
			}
		}
	}
}

func processTime(dec *xml.Decoder) TimeTrigger {
	var tt TimeTrigger
	for {
		tok, err := dec.Token()
		if err != nil {
			return tt
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "RandomDelay" {
				tt.RandomDelay = readText(dec)
				continue
			}
			processCommon(&tt.Common, t.Name.Local, dec)
		case xml.EndElement:
			if t.Name.Local == "TimeTrigger" {
				return tt
			}
		}
	}
}

func processEvent(dec *xml.Decoder) EventTrigger {
	var ev EventTrigger
	for {
		tok, err := dec.Token()
		if err != nil {
			return ev
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "Subscription":
				ev.Subscription = append(ev.Subscription, readText(dec))
			case "Delay":
				ev.Delay = readText(dec)
			case "MatchingElement":
				ev.MatchingElement = readText(dec)
			case "PeriodOfOccurrence":
				ev.PeriodOfOccurrence = readText(dec)
			case "NumberOfOccurrences":
				ev.NumberOfOccurrences, _ = strconv.Atoi(readText(dec))
			case "ValueQueries":
				ev.ValueQueries = processEventValues(dec)
			default:
				processCommon(&ev.Common, t.Name.Local, dec)
			}
		case xml.EndElement:
			if t.Name.Local == "EventTrigger" {
				return ev
			}
		}
	}
}

func processEventValues(dec *xml.Decoder) []string {
	var values []string
	for {
		tok, err := dec.Token()
		if err != nil {
			return values
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "Value" {
				values = append(values, readText(dec))
			}
		case xml.EndElement:
			if t.Name.Local == "ValueQueries" {
				return values
			}
		}
	}
}

func processLogon(dec *xml.Decoder) LogonTrigger {
	var lg LogonTrigger
	for {
		tok, err := dec.Token()
		if err != nil {
			return lg
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "UserId":
				lg.UserID = readText(dec)
			case "Delay":
				lg.Delay = readText(dec)
			default:
				processCommon(&lg.Common, t.Name.Local, dec)
			}
		case xml.EndElement:
			if t.Name.Local == "LogonTrigger" {
				return lg
			}
		}
	}
}

func processSession(dec *xml.Decoder) SessionTrigger {
	var s SessionTrigger
	for {
		tok, err := dec.Token()
		if err != nil {
			return s
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "Delay":
				s.Delay = readText(dec)
			case "StateChange":
				s.StateChange = readText(dec)
			case "UserId":
				s.UserID = readText(dec)
			default:
				processCommon(&s.Common, t.Name.Local, dec)
			}
		case xml.EndElement:
			if t.Name.Local == "SessionStateChangeTrigger" {
				return s
			}
		}
	}
}

func processCalendar(dec *xml.Decoder) CalendarTrigger {
	var c CalendarTrigger
	for {
		tok, err := dec.Token()
		if err != nil {
			return c
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "RandomDelay":
				c.RandomDelay = readText(dec)
			case "ScheduleByDay":
				d := processCalDay(dec)
				c.ScheduleByDay = &d
			case "ScheduleByWeek":
				w := processCalWeek(dec)
				c.ScheduleByWeek = &w
			case "ScheduleByMonth":
				m := processCalMonth(dec)
				c.ScheduleByMonth = &m
			case "ScheduleByMonthDayOfWeek":
				m := processCalMonthDayWeek(dec)
				c.ScheduleByMonthDayOfWeek = &m
			default:
				processCommon(&c.Common, t.Name.Local, dec)
			}
		case xml.EndElement:
			if t.Name.Local == "CalendarTrigger" {
				return c
			}
		}
	}
}

func processNotification(dec *xml.Decoder) WnfTrigger {
	var w WnfTrigger
	for {
		tok, err := dec.Token()
		if err != nil {
			return w
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "Delay":
				w.Delay = readText(dec)
			case "StateName":
				w.StateName = readText(dec)
			case "Data":
				w.Data = readText(dec)
			case "DataOffset":
				w.DataOffset = readText(dec)
			default:
				processCommon(&w.Common, t.Name.Local, dec)
			}
		case xml.EndElement:
			if t.Name.Local == "WnfStateChangeTrigger" {
				return w
			}
		}
	}
}

func processCalDay(dec *xml.Decoder) ByDay {
	var d ByDay
	for {
		tok, err := dec.Token()
		if err != nil {
			return d
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "DaysInterval" {
				d.DaysInterval, _ = strconv.Atoi(readText(dec))
			}
		case xml.EndElement:
			if t.Name.Local == "ScheduleByDay" {
				return d
			}
		}
	}
}

func processCalWeek(dec *xml.Decoder) ByWeek {
	var w ByWeek
	for {
		tok, err := dec.Token()
		if err != nil {
			return w
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "WeeksInterval" {
				w.WeeksInterval, _ = strconv.Atoi(readText(dec))
			} else if t.Name.Local != "DaysOfWeek" {
				w.DaysOfWeek = append(w.DaysOfWeek, t.Name.Local)
			}
		case xml.EndElement:
			if t.Name.Local == "ScheduleByWeek" {
				return w
			}
		}
	}
}

func processCalMonth(dec *xml.Decoder) ByMonth {
	var m ByMonth
	for {
		tok, err := dec.Token()
		if err != nil {
			return m
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "Months":
			case "DaysOfMonth":
				m.DaysOfMonth = append(m.DaysOfMonth, readText(dec))
			default:
				m.Months = append(m.Months, t.Name.Local)
			}
		case xml.EndElement:
			if t.Name.Local == "ScheduleByMonth" {
				return m
			}
		}
	}
}

func processCalMonthDayWeek(dec *xml.Decoder) ByMonthDayWeek {
	var m ByMonthDayWeek
	section := ""
	for {
		tok, err := dec.Token()
		if err != nil {
			return m
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "Months":
				section = "months"
			case "DaysOfWeek":
				section = "days"
			case "Weeks":
				section = "weeks"
			default:
				switch section {
				case "months":
					m.Months = append(m.Months, t.Name.Local)
				case "weeks":
					m.Weeks = append(m.Weeks, readText(dec))
				case "days":
					m.DaysOfWeek = append(m.DaysOfWeek, t.Name.Local)
				}
			}
		case xml.EndElement:
			if t.Name.Local == "ScheduleByMonthDayOfWeek" {
				return m
			}
		}
	}
}
