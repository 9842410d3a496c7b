package tasks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTaskXML = `<?xml version="1.0" encoding="UTF-8"?>
<Task version="1.2" xmlns="http://schemas.microsoft.com/windows/2004/02/mit/task">
  <RegistrationInfo>
    <Date>2026-07-31T09:00:00</Date>
    <Author>CONTOSO\bob</Author>
    <Description>Nightly backup</Description>
  </RegistrationInfo>
  <Triggers>
    <TimeTrigger>
      <StartBoundary>2026-07-31T22:00:00</StartBoundary>
      <Enabled>true</Enabled>
      <Repetition>
        <Interval>PT1H</Interval>
        <Duration>P1D</Duration>
        <StopAtDurationEnd>false</StopAtDurationEnd>
      </Repetition>
    </TimeTrigger>
    <LogonTrigger>
      <UserId>CONTOSO\bob</UserId>
      <Delay>PT30S</Delay>
    </LogonTrigger>
    <CalendarTrigger>
      <StartBoundary>2026-08-01T00:00:00</StartBoundary>
      <ScheduleByWeek>
        <WeeksInterval>2</WeeksInterval>
        <DaysOfWeek>
          <Monday />
          <Friday />
        </DaysOfWeek>
      </ScheduleByWeek>
    </CalendarTrigger>
  </Triggers>
  <Principals>
    <Principal id="Author">
      <UserId>S-1-5-18</UserId>
      <LogonType>S4U</LogonType>
      <RunLevel>HighestAvailable</RunLevel>
    </Principal>
  </Principals>
  <Settings>
    <Enabled>true</Enabled>
    <Hidden>false</Hidden>
  </Settings>
  <Actions Context="Author">
    <Exec>
      <Command>C:\backup.exe</Command>
      <Arguments>--full</Arguments>
      <WorkingDirectory>C:\</WorkingDirectory>
    </Exec>
  </Actions>
</Task>
`

func TestParseTask(t *testing.T) {
	task, err := ParseTask(strings.NewReader(sampleTaskXML))
	require.NoError(t, err)

	assert.Equal(t, "CONTOSO\\bob", task.Registration.Author)
	assert.Equal(t, "Nightly backup", task.Registration.Description)

	require.Len(t, task.Triggers.Time, 1)
	tt := task.Triggers.Time[0]
	assert.Equal(t, "2026-07-31T22:00:00", tt.Common.StartBoundary)
	assert.True(t, tt.Common.Enabled)
	assert.Equal(t, "PT1H", tt.Common.RepetitionInterval)
	assert.Equal(t, "P1D", tt.Common.RepetitionDuration)
	assert.False(t, tt.Common.RepetitionStopAtEnd)

	require.Len(t, task.Triggers.Logon, 1)
	assert.Equal(t, "CONTOSO\\bob", task.Triggers.Logon[0].UserID)
	assert.Equal(t, "PT30S", task.Triggers.Logon[0].Delay)

	require.Len(t, task.Triggers.Calendar, 1)
	cal := task.Triggers.Calendar[0]
	require.NotNil(t, cal.ScheduleByWeek)
	assert.Equal(t, 2, cal.ScheduleByWeek.WeeksInterval)
	assert.ElementsMatch(t, []string{"Monday", "Friday"}, cal.ScheduleByWeek.DaysOfWeek)

	assert.Equal(t, "S-1-5-18", task.Principal.UserID)
	assert.Equal(t, "HighestAvailable", task.Principal.RunLevel)

	assert.Equal(t, "true", task.Settings["Enabled"])
	assert.Equal(t, "false", task.Settings["Hidden"])

	require.Len(t, task.Actions, 1)
	assert.Equal(t, "C:\\backup.exe", task.Actions[0].Command)
	assert.Equal(t, "--full", task.Actions[0].Arguments)
}

func TestParseTaskEventTrigger(t *testing.T) {
	xmlDoc := `<Task><Triggers><EventTrigger>
		<Subscription>&lt;QueryList/&gt;</Subscription>
		<Delay>PT5S</Delay>
		<ValueQueries>
			<Value name="q1">EventData</Value>
		</ValueQueries>
	</EventTrigger></Triggers></Task>`

	task, err := ParseTask(strings.NewReader(xmlDoc))
	require.NoError(t, err)
	require.Len(t, task.Triggers.Event, 1)
	ev := task.Triggers.Event[0]
	assert.Equal(t, "PT5S", ev.Delay)
	require.Len(t, ev.Subscription, 1)
	require.Len(t, ev.ValueQueries, 1)
	assert.Equal(t, "EventData", ev.ValueQueries[0])
}

func TestParseTaskEmptyTriggers(t *testing.T) {
	task, err := ParseTask(strings.NewReader(`<Task><Triggers></Triggers></Task>`))
	require.NoError(t, err)
	assert.Empty(t, task.Triggers.Boot)
	assert.Empty(t, task.Triggers.Time)
}
