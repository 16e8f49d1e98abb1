package domain

import (
	"math"
	"time"
)

// RecentNoteLimit is the number of notes surfaced in the stats snapshot.
const RecentNoteLimit = 3

// TaskStats summarizes a user's task list.
type TaskStats struct {
	Total          int              `json:"total"`
	Completed      int              `json:"completed"`
	Pending        int              `json:"pending"`
	CompletionRate int              `json:"completionRate"`
	ByPriority     PriorityBreakdown `json:"byPriority"`
}

// PriorityBreakdown counts pending tasks per priority. Completed tasks are
// excluded: the breakdown answers "what is still on my plate".
type PriorityBreakdown struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// FocusStats summarizes the current day's focus sessions. Durations are in
// minutes.
type FocusStats struct {
	TotalTime     int `json:"totalTime"`
	BreakTime     int `json:"breakTime"`
	Sessions      int `json:"sessions"`
	FocusSessions int `json:"focusSessions"`
	BreakSessions int `json:"breakSessions"`
}

// NoteRef is the compact note projection carried in the snapshot.
type NoteRef struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// NoteStats summarizes a user's notes.
type NoteStats struct {
	Total  int       `json:"total"`
	Recent []NoteRef `json:"recent"`
}

// TodayMarker carries the snapshot's day boundary and whether the task list
// is finished. An empty task list is not complete.
type TodayMarker struct {
	Date       time.Time `json:"date"`
	IsComplete bool      `json:"isComplete"`
}

// Stats is the aggregation snapshot returned by the stats endpoint. It is a
// pure read-side projection: recomputed on every call, never cached, never
// mutating the rows it is derived from.
type Stats struct {
	Tasks TaskStats   `json:"tasks"`
	Focus FocusStats  `json:"focus"`
	Notes NoteStats   `json:"notes"`
	Today TodayMarker `json:"today"`
}

// DayStart returns the local-midnight boundary of the day containing now.
func DayStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// CompletionRate returns round(100 * completed/total), or 0 for an empty
// task list.
func CompletionRate(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// ComputeStats builds the aggregation snapshot. sessions must already be
// restricted to the current day; notes must be ordered most recent first.
func ComputeStats(tasks []Task, sessions []FocusSession, notes []Note, dayStart time.Time) Stats {
	var ts TaskStats
	ts.Total = len(tasks)
	for _, t := range tasks {
		if t.Completed {
			ts.Completed++
			continue
		}
		switch t.Priority {
		case PriorityHigh:
			ts.ByPriority.High++
		case PriorityLow:
			ts.ByPriority.Low++
		default:
			ts.ByPriority.Medium++
		}
	}
	ts.Pending = ts.Total - ts.Completed
	ts.CompletionRate = CompletionRate(ts.Completed, ts.Total)

	var fs FocusStats
	fs.Sessions = len(sessions)
	for _, s := range sessions {
		switch s.Type {
		case SessionFocus:
			fs.TotalTime += s.Duration
			fs.FocusSessions++
		case SessionBreak:
			fs.BreakTime += s.Duration
			fs.BreakSessions++
		}
	}

	ns := NoteStats{Total: len(notes), Recent: []NoteRef{}}
	for i, n := range notes {
		if i == RecentNoteLimit {
			break
		}
		ns.Recent = append(ns.Recent, NoteRef{ID: n.ID, Title: n.Title, CreatedAt: n.CreatedAt})
	}

	return Stats{
		Tasks: ts,
		Focus: fs,
		Notes: ns,
		Today: TodayMarker{
			Date:       dayStart,
			IsComplete: ts.Pending == 0 && ts.Total > 0,
		},
	}
}
