package services_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/bracketops/live-console/models"
	"github.com/bracketops/live-console/services"
)

func TestWinProbability(t *testing.T) {
	Convey("Given a four-team match in progress", t, func() {
		snap := &models.MatchSnapshot{Teams: []models.TeamEntry{
			{Team: "Alpha", Points: 12, Status: models.TeamStatusAlive, AliveCount: 4},
			{Team: "Bravo", Points: 8, Status: models.TeamStatusAlive, AliveCount: 2},
			{Team: "Charlie", Points: 3, Status: models.TeamStatusAlive, AliveCount: 1},
			{Team: "Delta", Points: 9, Status: models.TeamStatusEliminated, AliveCount: 0},
		}}

		probs := services.WinProbability(snap, services.DefaultAliveWeight)

		Convey("Then probabilities sum to 1 across the field", func() {
			var sum float64
			for _, p := range probs {
				sum += p
			}
			So(sum, ShouldAlmostEqual, 1.0, 1e-9)
		})

		Convey("And the eliminated team always shows 0", func() {
			So(probs["Delta"], ShouldEqual, 0)
		})

		Convey("And more points means more probability at equal alive counts", func() {
			jump := &models.MatchSnapshot{Teams: []models.TeamEntry{
				{Team: "Alpha", Points: 20, Status: models.TeamStatusAlive, AliveCount: 4},
				{Team: "Bravo", Points: 8, Status: models.TeamStatusAlive, AliveCount: 2},
				{Team: "Charlie", Points: 3, Status: models.TeamStatusAlive, AliveCount: 1},
				{Team: "Delta", Points: 9, Status: models.TeamStatusEliminated, AliveCount: 0},
			}}
			bumped := services.WinProbability(jump, services.DefaultAliveWeight)
			So(bumped["Alpha"], ShouldBeGreaterThan, probs["Alpha"])
		})

		Convey("And the snapshot itself is untouched", func() {
			So(snap.Teams[0].Points, ShouldEqual, 12)
			So(len(snap.Teams), ShouldEqual, 4)
		})
	})

	Convey("Given a match where one team was just eliminated", t, func() {
		snap := &models.MatchSnapshot{Teams: []models.TeamEntry{
			{Team: "Alpha", Points: 10, Status: models.TeamStatusAlive, AliveCount: 3},
			{Team: "Delta", Points: 15, Status: models.TeamStatusEliminated, AliveCount: 0},
			{Team: "Echo", Points: 5, Status: models.TeamStatusAlive, AliveCount: 4},
		}}

		probs := services.WinProbability(snap, services.DefaultAliveWeight)

		Convey("Then the survivors renormalize to 1 and Delta shows 0", func() {
			So(probs["Delta"], ShouldEqual, 0)
			So(probs["Alpha"]+probs["Echo"], ShouldAlmostEqual, 1.0, 1e-9)
		})
	})

	Convey("Given an all-eliminated field", t, func() {
		snap := &models.MatchSnapshot{Teams: []models.TeamEntry{
			{Team: "Alpha", Points: 10, Status: models.TeamStatusEliminated},
			{Team: "Bravo", Points: 4, Status: models.TeamStatusEliminated},
		}}

		probs := services.WinProbability(snap, services.DefaultAliveWeight)

		Convey("Then every probability is a defined 0, not a division error", func() {
			So(probs["Alpha"], ShouldEqual, 0)
			So(probs["Bravo"], ShouldEqual, 0)
		})
	})

	Convey("Given standing teams with zero points and zero alive counts", t, func() {
		snap := &models.MatchSnapshot{Teams: []models.TeamEntry{
			{Team: "Alpha", Status: models.TeamStatusAlive},
			{Team: "Bravo", Status: models.TeamStatusAlive},
		}}

		probs := services.WinProbability(snap, services.DefaultAliveWeight)

		Convey("Then the estimate falls back to uniform", func() {
			So(probs["Alpha"], ShouldAlmostEqual, 0.5, 1e-9)
			So(probs["Bravo"], ShouldAlmostEqual, 0.5, 1e-9)
		})
	})

	Convey("Given no teams at all", t, func() {
		probs := services.WinProbability(&models.MatchSnapshot{}, services.DefaultAliveWeight)

		So(probs, ShouldBeEmpty)
	})
}

func TestPredictMVP(t *testing.T) {
	Convey("Given kill counters across two teams", t, func() {
		snap := &models.MatchSnapshot{Teams: []models.TeamEntry{
			{Team: "Alpha", Players: []models.PlayerStat{{Name: "Ace", Kills: 3}, {Name: "Bolt", Kills: 7}}},
			{Team: "Bravo", Players: []models.PlayerStat{{Name: "Fox", Kills: 5}}},
		}}

		Convey("Then the highest counter wins", func() {
			mvp := services.PredictMVP(snap)
			So(mvp, ShouldNotBeNil)
			So(mvp.Team, ShouldEqual, "Alpha")
			So(mvp.Player, ShouldEqual, "Bolt")
			So(mvp.Kills, ShouldEqual, 7)
		})
	})

	Convey("Given a tie between teams", t, func() {
		snap := &models.MatchSnapshot{Teams: []models.TeamEntry{
			{Team: "Alpha", Players: []models.PlayerStat{{Name: "Ace", Kills: 5}}},
			{Team: "Bravo", Players: []models.PlayerStat{{Name: "Fox", Kills: 5}}},
		}}

		Convey("Then the first-encountered player in insertion order wins, repeatably", func() {
			for i := 0; i < 10; i++ {
				mvp := services.PredictMVP(snap)
				So(mvp.Team, ShouldEqual, "Alpha")
				So(mvp.Player, ShouldEqual, "Ace")
			}
		})
	})

	Convey("Given players with no kills recorded yet", t, func() {
		snap := &models.MatchSnapshot{Teams: []models.TeamEntry{
			{Team: "Alpha", Players: []models.PlayerStat{{Name: "Ace"}, {Name: "Bolt"}}},
			{Team: "Bravo", Players: []models.PlayerStat{{Name: "Fox"}}},
		}}

		Convey("Then the first-inserted player is still returned, not nil", func() {
			mvp := services.PredictMVP(snap)
			So(mvp, ShouldNotBeNil)
			So(mvp.Team, ShouldEqual, "Alpha")
			So(mvp.Player, ShouldEqual, "Ace")
			So(mvp.Kills, ShouldEqual, 0)
		})
	})

	Convey("Given no recorded players", t, func() {
		So(services.PredictMVP(&models.MatchSnapshot{}), ShouldBeNil)
	})
}
