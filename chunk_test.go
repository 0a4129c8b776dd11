package relq_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/zoobzio/relq"
)

func TestChunk(t *testing.T) {
	got := relq.Chunk([]int{1, 2, 3, 4, 5}, 2)
	expected := [][]int{{1, 2}, {3, 4}, {5}}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Chunk() = %v, want %v", got, expected)
	}

	if got := relq.Chunk([]int{}, 2); len(got) != 0 {
		t.Errorf("Chunk(empty) = %v", got)
	}

	exact := relq.Chunk([]string{"a", "b"}, 2)
	if len(exact) != 1 || len(exact[0]) != 2 {
		t.Errorf("Chunk(exact) = %v", exact)
	}
}

func TestChunk_DefaultSize(t *testing.T) {
	values := make([]int, relq.MaxInValues+1)
	chunks := relq.Chunk(values, 0)
	if len(chunks) != 2 || len(chunks[0]) != relq.MaxInValues || len(chunks[1]) != 1 {
		t.Errorf("unexpected chunk sizes: %d chunks", len(chunks))
	}
}

func TestChunk_AppendDoesNotOverwrite(t *testing.T) {
	values := []int{1, 2, 3}
	chunks := relq.Chunk(values, 2)
	_ = append(chunks[0], 99)
	if values[2] != 3 {
		t.Errorf("append through a chunk overwrote the source: %v", values)
	}
}

func TestChunk_LoadsLargeKeyLists(t *testing.T) {
	exec := &fakeExecutor{}
	s := relq.NewSession(exec)

	ids := make([]int, relq.MaxInValues*2+5)
	for i := range ids {
		ids[i] = i
	}
	for _, chunk := range relq.Chunk(ids, 0) {
		if _, err := s.Query("Customer").WhereOp("Id", relq.In, chunk).ToList(context.Background()); err != nil {
			t.Fatalf("ToList() error = %v", err)
		}
	}
	if len(exec.commands) != 3 {
		t.Errorf("expected 3 commands, got %d", len(exec.commands))
	}
}
