package analysis

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func student(id, class string, grades map[string]float64) *Student {
	return &Student{ID: id, Name: "s" + id, Class: class, Grades: grades, DeclaredRankings: map[string]int{}, Rankings: RankingSet{}}
}

func roster() []*Student {
	return []*Student{
		student("1", "1班", map[string]float64{"语文": 90, "数学": 70}),
		student("2", "1班", map[string]float64{"语文": 60, "数学": 95}),
		student("3", "2班", map[string]float64{"语文": 80, "数学": 50}),
		student("4", "2班", map[string]float64{"语文": 75}),
		student("5", "1班", map[string]float64{"语文": 55, "数学": 40}),
	}
}

func TestComputeRankings_ClassRanksArePermutations(t *testing.T) {
	students := ComputeRankings(roster(), []string{"语文", "数学"}, SequentialRanks)

	byClass := map[string][]int{}
	for _, s := range students {
		r, ok := s.Rankings[ClassRankLabel(TotalLabel, len(groupByClass(students)[s.Class]))]
		require.True(t, ok, "student %s has no class total rank: %v", s.ID, s.Rankings)
		byClass[s.Class] = append(byClass[s.Class], r)
	}
	for class, ranks := range byClass {
		sort.Ints(ranks)
		for i, r := range ranks {
			assert.Equal(t, i+1, r, "class %s ranks %v", class, ranks)
		}
	}
}

func TestComputeRankings_GradeRanksFollowTotals(t *testing.T) {
	students := ComputeRankings(roster(), []string{"语文", "数学"}, SequentialRanks)

	label := GradeRankLabel(TotalLabel, len(students))
	for i, s := range students {
		assert.Equal(t, i+1, s.Rank, "overall rank of %s", s.ID)
		assert.Equal(t, s.Rank, s.Rankings[label], "grade total rank of %s", s.ID)
		if i > 0 {
			assert.GreaterOrEqual(t, students[i-1].Total, s.Total)
		}
	}
	// student 4 has no 数学 grade, so only four are ranked in it
	s4 := findByID(t, students, "4")
	_, ok := s4.Rankings[GradeRankLabel("数学", 4)]
	assert.False(t, ok)
	s1 := findByID(t, students, "1")
	assert.Equal(t, 2, s1.Rankings[GradeRankLabel("数学", 4)])
	assert.Equal(t, 1, s1.Rankings[ClassRankLabel("语文", 3)])
}

func TestComputeRankings_DeclaredRankingsUntouched(t *testing.T) {
	students := roster()
	students[0].DeclaredRankings = map[string]int{"班级排名": 7}
	students[0].Rankings = RankingSet{"班级排名": 7}

	ComputeRankings(students, []string{"语文", "数学"}, SequentialRanks)

	s1 := findByID(t, students, "1")
	if diff := cmp.Diff(map[string]int{"班级排名": 7}, map[string]int(s1.Rankings)); diff != "" {
		t.Fatalf("declared rankings changed (-want +got):\n%s", diff)
	}
	s2 := findByID(t, students, "2")
	assert.Contains(t, s2.Rankings, GradeRankLabel(TotalLabel, 5))
}

func TestRankPolicies(t *testing.T) {
	sorted := []float64{95, 90, 90, 80}
	assert.Equal(t, []int{1, 2, 3, 4}, SequentialRanks(sorted))
	assert.Equal(t, []int{1, 2, 2, 4}, CompetitionRanks(sorted))

	p, err := RankPolicyByName("competition")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, p([]float64{3, 3}))
	_, err = RankPolicyByName("dense")
	assert.Error(t, err)
}

func TestComputeRankings_CompetitionTies(t *testing.T) {
	students := []*Student{
		student("a", "1班", map[string]float64{"语文": 80}),
		student("b", "1班", map[string]float64{"语文": 80}),
		student("c", "1班", map[string]float64{"语文": 70}),
	}
	ComputeRankings(students, []string{"语文"}, CompetitionRanks)
	got := map[string]int{}
	for _, s := range students {
		got[s.ID] = s.Rank
	}
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 3}, got)
}

func TestComputeTotals(t *testing.T) {
	s := student("x", "1班", map[string]float64{"语文": 90.5, "数学": 80, "英语": 0.25})
	ComputeTotals([]*Student{s})
	assert.InDelta(t, 170.75, s.Total, 1e-9)
}

func findByID(t *testing.T, students []*Student, id string) *Student {
	t.Helper()
	for _, s := range students {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("student %s not found", id)
	return nil
}
