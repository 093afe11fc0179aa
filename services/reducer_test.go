package services_test

import (
	"encoding/json"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/bracketops/live-console/models"
	"github.com/bracketops/live-console/services"
)

func payload(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return raw
}

func scoreEvent(t *testing.T, team string, points int) models.LiveEvent {
	return models.LiveEvent{
		Type:    models.EventScore,
		Payload: payload(t, models.ScorePayload{Team: team, Points: points}),
	}
}

func killEvent(t *testing.T, team, player string, points int) models.LiveEvent {
	return models.LiveEvent{
		Type:    models.EventPlayerKill,
		Payload: payload(t, models.PlayerKillPayload{Team: team, Player: player, Points: points}),
	}
}

func TestApplyLiveEvent_Score(t *testing.T) {
	ts := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

	Convey("Given an empty snapshot", t, func() {
		snap := &models.MatchSnapshot{}

		Convey("When two score events land for the same team", func() {
			So(services.ApplyLiveEvent(snap, scoreEvent(t, "Alpha", 5), ts), ShouldBeNil)
			So(services.ApplyLiveEvent(snap, scoreEvent(t, "Alpha", 3), ts.Add(time.Second)), ShouldBeNil)

			Convey("Then the running total accumulates", func() {
				So(snap.Team("Alpha").Points, ShouldEqual, 8)
			})

			Convey("And the history has one full-width row per score event", func() {
				So(len(snap.ScoreHistory), ShouldEqual, 2)
				So(snap.ScoreHistory[0].Scores, ShouldResemble, []models.TeamScore{{Team: "Alpha", Points: 5}})
				So(snap.ScoreHistory[1].Scores, ShouldResemble, []models.TeamScore{{Team: "Alpha", Points: 8}})
			})
		})

		Convey("When a score event references an unknown team", func() {
			So(services.ApplyLiveEvent(snap, scoreEvent(t, "Bravo", 2), ts), ShouldBeNil)

			Convey("Then the team is created with defaults before scoring", func() {
				team := snap.Team("Bravo")
				So(team, ShouldNotBeNil)
				So(team.Status, ShouldEqual, models.TeamStatusAlive)
				So(team.AliveCount, ShouldEqual, models.DefaultAliveCount)
				So(team.Points, ShouldEqual, 2)
			})
		})

		Convey("When a correction arrives as a negative delta", func() {
			So(services.ApplyLiveEvent(snap, scoreEvent(t, "Alpha", 5), ts), ShouldBeNil)
			So(services.ApplyLiveEvent(snap, scoreEvent(t, "Alpha", -2), ts), ShouldBeNil)

			Convey("Then the total is adjusted, not clamped", func() {
				So(snap.Team("Alpha").Points, ShouldEqual, 3)
			})
		})

		Convey("When the team name is empty", func() {
			err := services.ApplyLiveEvent(snap, scoreEvent(t, "", 5), ts)

			Convey("Then the event is rejected as an invalid payload", func() {
				So(err, ShouldWrap, services.ErrInvalidPayload)
			})
		})

		Convey("When a second team joins mid-match", func() {
			So(services.ApplyLiveEvent(snap, scoreEvent(t, "Alpha", 5), ts), ShouldBeNil)
			So(services.ApplyLiveEvent(snap, scoreEvent(t, "Charlie", 1), ts), ShouldBeNil)

			Convey("Then the new history row lists both teams", func() {
				last := snap.ScoreHistory[len(snap.ScoreHistory)-1]
				So(last.Scores, ShouldResemble, []models.TeamScore{
					{Team: "Alpha", Points: 5},
					{Team: "Charlie", Points: 1},
				})
			})
		})
	})
}

func TestApplyLiveEvent_PlayerKill(t *testing.T) {
	ts := time.Now()

	Convey("Given an empty snapshot", t, func() {
		snap := &models.MatchSnapshot{}

		Convey("When the same player records two kills", func() {
			So(services.ApplyLiveEvent(snap, killEvent(t, "Bravo", "Fox", 1), ts), ShouldBeNil)
			So(services.ApplyLiveEvent(snap, killEvent(t, "Bravo", "Fox", 1), ts), ShouldBeNil)

			team := snap.Team("Bravo")

			Convey("Then the kill counter and the team total both advance", func() {
				So(team.Players, ShouldHaveLength, 1)
				So(team.Players[0].Name, ShouldEqual, "Fox")
				So(team.Players[0].Kills, ShouldEqual, 2)
				So(team.Points, ShouldEqual, 2)
			})

			Convey("And each kill appended a history row", func() {
				So(len(snap.ScoreHistory), ShouldEqual, 2)
			})
		})

		Convey("When the caller supplies a custom point value", func() {
			So(services.ApplyLiveEvent(snap, killEvent(t, "Bravo", "Fox", 3), ts), ShouldBeNil)

			Convey("Then kills count by one while points are taken as supplied", func() {
				team := snap.Team("Bravo")
				So(team.Players[0].Kills, ShouldEqual, 1)
				So(team.Points, ShouldEqual, 3)
			})
		})

		Convey("When the player name is missing", func() {
			err := services.ApplyLiveEvent(snap, killEvent(t, "Bravo", "", 1), ts)

			So(err, ShouldWrap, services.ErrInvalidPayload)
			So(snap.Teams, ShouldBeEmpty)
		})
	})
}

func TestApplyLiveEvent_StatusAliveCountTicker(t *testing.T) {
	ts := time.Now()

	Convey("Given an empty snapshot", t, func() {
		snap := &models.MatchSnapshot{}

		Convey("When an out-of-range alive_count arrives", func() {
			evt := models.LiveEvent{
				Type:    models.EventAliveCount,
				Payload: payload(t, models.AliveCountPayload{Team: "Charlie", Count: 7}),
			}
			So(services.ApplyLiveEvent(snap, evt, ts), ShouldBeNil)

			Convey("Then the count is clamped, not rejected", func() {
				So(snap.Team("Charlie").AliveCount, ShouldEqual, 4)
			})
		})

		Convey("When a negative alive_count arrives", func() {
			evt := models.LiveEvent{
				Type:    models.EventAliveCount,
				Payload: payload(t, models.AliveCountPayload{Team: "Charlie", Count: -1}),
			}
			So(services.ApplyLiveEvent(snap, evt, ts), ShouldBeNil)
			So(snap.Team("Charlie").AliveCount, ShouldEqual, 0)
		})

		Convey("When a team is eliminated", func() {
			evt := models.LiveEvent{
				Type:    models.EventStatus,
				Payload: payload(t, models.StatusPayload{Team: "Delta", Status: models.TeamStatusEliminated}),
			}
			So(services.ApplyLiveEvent(snap, evt, ts), ShouldBeNil)

			So(snap.Team("Delta").Status, ShouldEqual, models.TeamStatusEliminated)

			Convey("And no history row was appended", func() {
				So(snap.ScoreHistory, ShouldBeEmpty)
			})
		})

		Convey("When an undefined status value arrives", func() {
			evt := models.LiveEvent{
				Type:    models.EventStatus,
				Payload: payload(t, models.StatusPayload{Team: "Delta", Status: "retired"}),
			}
			err := services.ApplyLiveEvent(snap, evt, ts)

			So(err, ShouldWrap, services.ErrInvalidPayload)
		})

		Convey("When ticker events arrive", func() {
			first := models.LiveEvent{Type: models.EventTicker, Payload: payload(t, models.TickerPayload{Text: "zone closing"})}
			second := models.LiveEvent{Type: models.EventTicker, Payload: payload(t, models.TickerPayload{Text: "final circle"})}
			So(services.ApplyLiveEvent(snap, first, ts), ShouldBeNil)
			So(services.ApplyLiveEvent(snap, second, ts), ShouldBeNil)

			Convey("Then the message is overwritten, with no history", func() {
				So(snap.Ticker, ShouldEqual, "final circle")
				So(snap.ScoreHistory, ShouldBeEmpty)
			})
		})
	})
}

func TestApplyLiveEvent_UnknownKind(t *testing.T) {
	ts := time.Now()

	Convey("Given a snapshot with some state", t, func() {
		snap := &models.MatchSnapshot{}
		So(services.ApplyLiveEvent(snap, scoreEvent(t, "Alpha", 5), ts), ShouldBeNil)
		before := snap.Clone()

		Convey("When an event of a bogus kind is applied", func() {
			evt := models.LiveEvent{Type: "bogus", Payload: payload(t, map[string]int{"x": 1})}
			err := services.ApplyLiveEvent(snap, evt, ts)

			Convey("Then it fails with the unknown-kind error and nothing changed", func() {
				So(err, ShouldWrap, services.ErrUnknownEventKind)
				So(snap, ShouldResemble, before)
			})
		})

		Convey("When the payload is missing entirely", func() {
			err := services.ApplyLiveEvent(snap, models.LiveEvent{Type: models.EventScore}, ts)

			So(err, ShouldWrap, services.ErrInvalidPayload)
			So(snap, ShouldResemble, before)
		})
	})
}
