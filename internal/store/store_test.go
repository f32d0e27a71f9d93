package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docdialog/internal/converse"
	"github.com/dgallion1/docdialog/internal/extract"
	"github.com/dgallion1/docdialog/internal/images"
)

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleFacts() []extract.Fact {
	return []extract.Fact{
		{ID: "qa_001", Question: "What is Cholera?", Answer: "an acute diarrhoeal infection",
			SourceDocument: "a.pdf", PageNumber: 1, Category: extract.CategoryDefinition, CreatedAt: testTime},
		{ID: "qa_002", Question: "What are the symptoms of cholera?", Answer: "watery diarrhea",
			SourceDocument: "a.pdf", PageNumber: 2, Category: extract.CategorySymptoms, CreatedAt: testTime},
		{ID: "qa_003", Question: "How is cholera treated?", Answer: "oral rehydration salts",
			SourceDocument: "b.pdf", PageNumber: 1, Category: extract.CategoryTreatment, CreatedAt: testTime},
	}
}

func sampleConversation() converse.Conversation {
	return converse.Conversation{
		ID:        "conv_001",
		Topic:     "Cholera Case Discussion",
		CreatedAt: testTime,
		FactIDs:   []string{"qa_001"},
		Turns: []converse.Turn{
			{TurnID: 1, Speaker: converse.SpeakerPatient, Text: "Can you explain what this disease is?"},
			{TurnID: 2, Speaker: converse.SpeakerDoctor, Text: "Based on your description, acute diarrhoeal infection.", SourceReference: "a.pdf:p1"},
		},
	}
}

func TestUpsertFacts_Idempotent(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertFacts(ctx, sampleFacts()))
	require.NoError(t, s.UpsertFacts(ctx, sampleFacts()))

	facts, err := s.ListFacts(ctx, FactFilter{})
	require.NoError(t, err)
	require.Len(t, facts, 3)
	require.Equal(t, "qa_001", facts[0].ID)
	require.True(t, facts[0].CreatedAt.Equal(testTime))

	updated := sampleFacts()[:1]
	updated[0].Answer = "an acute infection"
	require.NoError(t, s.UpsertFacts(ctx, updated))

	got, err := s.GetFact(ctx, "qa_001")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "an acute infection", got.Answer)
	require.Equal(t, extract.CategoryDefinition, got.Category)
}

func TestListFacts_Filters(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertFacts(ctx, sampleFacts()))

	byCat, err := s.ListFacts(ctx, FactFilter{Category: extract.CategorySymptoms})
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	require.Equal(t, "qa_002", byCat[0].ID)

	byDoc, err := s.ListFacts(ctx, FactFilter{SourceDocument: "a.pdf"})
	require.NoError(t, err)
	require.Len(t, byDoc, 2)

	limited, err := s.ListFacts(ctx, FactFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestGetFact_Missing(t *testing.T) {
	s := OpenMemory(t)
	got, err := s.GetFact(context.Background(), "qa_999")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestConversations_RoundTrip(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()
	c := sampleConversation()

	require.NoError(t, s.UpsertConversations(ctx, []converse.Conversation{c}))
	require.NoError(t, s.UpsertConversations(ctx, []converse.Conversation{c}))

	all, err := s.ListConversations(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)

	got, err := s.GetConversation(ctx, "conv_001")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, c.Topic, got.Topic)
	require.Len(t, got.Turns, 2)
	require.Equal(t, "a.pdf:p1", got.Turns[1].SourceReference)
	require.Equal(t, []string{"qa_001"}, got.FactIDs)

	missing, err := s.GetConversation(ctx, "conv_404")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestSaveRun_WritesEverything(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	out := RunOutput{
		Run: RunRecord{
			RunID: "run-1", StartedAt: testTime, FinishedAt: testTime.Add(time.Second),
			Status: RunSucceeded, Documents: 2, Pages: 3, Facts: 3, Conversations: 1, ImagePairs: 1,
		},
		Facts:         sampleFacts(),
		Conversations: []converse.Conversation{sampleConversation()},
		ImagePairs: []images.Pair{{
			PairID: "img_001", ImagePath: "images/a_p1_img1.png", ImageType: images.DefaultImageType,
			CaptionShort: images.NoTextCaption, CaptionDetailed: images.NoDescriptionCaption,
			SourceDocument: "a.pdf", PageNumber: 1,
		}},
	}
	require.NoError(t, s.SaveRun(ctx, out))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, st.Facts)
	require.Equal(t, 1, st.ByCategory[extract.CategoryTreatment])
	require.Equal(t, 1, st.Conversations)
	require.Equal(t, 1, st.ImagePairs)
	require.Equal(t, 1, st.Runs)
	require.NotNil(t, st.LastRun)
	require.Equal(t, "run-1", st.LastRun.RunID)
	require.Equal(t, 3, st.LastRun.Pages)

	pairs, err := s.ListImagePairs(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	require.Equal(t, "img_001", pairs[0].PairID)
}

func TestSaveRun_RollsBackOnFailure(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	bad := sampleConversation()
	// Dropping the table makes the conversation insert fail after facts were
	// written inside the same transaction.
	_, err := s.DB.Exec(`DROP TABLE conversations`)
	require.NoError(t, err)

	err = s.SaveRun(ctx, RunOutput{
		Run:           RunRecord{RunID: "run-2", StartedAt: testTime, FinishedAt: testTime, Status: RunSucceeded},
		Facts:         sampleFacts(),
		Conversations: []converse.Conversation{bad},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), ":memory:")

	facts, err := s.ListFacts(ctx, FactFilter{})
	require.NoError(t, err)
	require.Empty(t, facts)
}

func TestStats_Empty(t *testing.T) {
	s := OpenMemory(t)
	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	require.Zero(t, st.Facts)
	require.Nil(t, st.LastRun)
}

func TestOpen_FileCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "kb.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	require.Equal(t, path, s.Path())

	require.NoError(t, s.RecordRun(context.Background(), RunRecord{
		RunID: "run-x", StartedAt: testTime, FinishedAt: testTime, Status: RunFailed, Error: "boom",
	}))
	last, err := s.LastRun(context.Background())
	require.NoError(t, err)
	require.Equal(t, RunFailed, last.Status)
	require.Equal(t, "boom", last.Error)
}

func TestLastRun_SubSecondOrdering(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	// .12s would sort before .1s if fractions were stored without padding.
	later := RunRecord{RunID: "run-a", StartedAt: testTime.Add(120 * time.Millisecond), Status: RunSucceeded}
	earlier := RunRecord{RunID: "run-b", StartedAt: testTime.Add(100 * time.Millisecond), Status: RunSucceeded}
	later.FinishedAt = later.StartedAt
	earlier.FinishedAt = earlier.StartedAt
	require.NoError(t, s.RecordRun(ctx, later))
	require.NoError(t, s.RecordRun(ctx, earlier))

	last, err := s.LastRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	require.Equal(t, "run-a", last.RunID)
	require.True(t, later.StartedAt.Equal(last.StartedAt))
}
