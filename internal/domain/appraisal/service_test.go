package appraisal

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ipcr/internal/domain/settings"
)

type memSettingsStore struct {
	record *settings.Settings
}

func (m *memSettingsStore) Get(ctx context.Context) (*settings.Settings, error) {
	if m.record == nil {
		return nil, settings.ErrNotFound
	}
	clone := *m.record
	return &clone, nil
}

func (m *memSettingsStore) Insert(ctx context.Context, record settings.Settings) error {
	if m.record != nil {
		return settings.ErrAlreadyExists
	}
	m.record = &record
	return nil
}

func (m *memSettingsStore) Update(ctx context.Context, record settings.Settings) error {
	m.record = &record
	return nil
}

type memState struct {
	categories map[string]Category
	tasks      map[string]MainTask
	outputs    map[string]Output
	subTasks   map[string]SubTask
	documents  map[string]Document
}

func newMemState() *memState {
	return &memState{
		categories: map[string]Category{},
		tasks:      map[string]MainTask{},
		outputs:    map[string]Output{},
		subTasks:   map[string]SubTask{},
		documents:  map[string]Document{},
	}
}

func (s *memState) clone() *memState {
	out := newMemState()
	for id, v := range s.categories {
		out.categories[id] = v
	}
	for id, v := range s.tasks {
		out.tasks[id] = v
	}
	for id, v := range s.outputs {
		out.outputs[id] = v
	}
	for id, v := range s.subTasks {
		out.subTasks[id] = v
	}
	for id, v := range s.documents {
		out.documents[id] = v
	}
	return out
}

type memStore struct {
	state *memState
}

func newMemStore() *memStore {
	return &memStore{state: newMemState()}
}

type memTx struct {
	store  *memStore
	staged *memState
}

func (t *memTx) Commit(ctx context.Context) error {
	t.store.state = t.staged
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error { return nil }

func staged(tx Tx) (*memState, error) {
	wrapped, ok := tx.(*memTx)
	if !ok {
		return nil, fmt.Errorf("unexpected tx type %T", tx)
	}
	return wrapped.staged, nil
}

func (m *memStore) Begin(ctx context.Context) (Tx, error) {
	return &memTx{store: m, staged: m.state.clone()}, nil
}

func (m *memStore) CreateCategory(ctx context.Context, category Category) error {
	for _, existing := range m.state.categories {
		if existing.Status == StatusActive && existing.Name == category.Name {
			return ErrDuplicateCategory
		}
	}
	m.state.categories[category.ID] = category
	return nil
}

func (m *memStore) GetCategory(ctx context.Context, categoryID string) (*Category, error) {
	category, ok := m.state.categories[categoryID]
	if !ok {
		return nil, ErrCategoryNotFound
	}
	return &category, nil
}

func (m *memStore) ListCategories(ctx context.Context, status, period string) ([]Category, error) {
	out := make([]Category, 0)
	for _, category := range m.state.categories {
		if category.Status == status && category.Period == period {
			out = append(out, category)
		}
	}
	return out, nil
}

func (m *memStore) UpdateCategory(ctx context.Context, category Category) error {
	if _, ok := m.state.categories[category.ID]; !ok {
		return ErrCategoryNotFound
	}
	m.state.categories[category.ID] = category
	return nil
}

func (m *memStore) CreateTask(ctx context.Context, task MainTask) error {
	m.state.tasks[task.ID] = task
	return nil
}

func (m *memStore) GetTask(ctx context.Context, taskID string) (*MainTask, error) {
	task, ok := m.state.tasks[taskID]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return &task, nil
}

func (m *memStore) ListTasks(ctx context.Context, categoryID, status, period string) ([]MainTask, error) {
	out := make([]MainTask, 0)
	for _, task := range m.state.tasks {
		if task.Status != status || task.Period != period {
			continue
		}
		if categoryID != "" && task.CategoryID != categoryID {
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

func (m *memStore) UpdateTask(ctx context.Context, task MainTask) error {
	if _, ok := m.state.tasks[task.ID]; !ok {
		return ErrTaskNotFound
	}
	m.state.tasks[task.ID] = task
	return nil
}

func (m *memStore) GetSubTask(ctx context.Context, subTaskID string) (*SubTask, error) {
	st, ok := m.state.subTasks[subTaskID]
	if !ok {
		return nil, ErrSubTaskNotFound
	}
	return &st, nil
}

func (m *memStore) UpdateSubTask(ctx context.Context, st SubTask) error {
	if _, ok := m.state.subTasks[st.ID]; !ok {
		return ErrSubTaskNotFound
	}
	m.state.subTasks[st.ID] = st
	return nil
}

func (m *memStore) ListSubTasksByDocument(ctx context.Context, documentID string) ([]SubTask, error) {
	out := make([]SubTask, 0)
	for _, st := range m.state.subTasks {
		if st.DocumentID == documentID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (m *memStore) ListSubTasksByTask(ctx context.Context, taskID string) ([]SubTask, error) {
	out := make([]SubTask, 0)
	for _, st := range m.state.subTasks {
		if st.TaskID == taskID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (m *memStore) GetDocument(ctx context.Context, documentID string) (*Document, error) {
	doc, ok := m.state.documents[documentID]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return &doc, nil
}

func (m *memStore) ListDocuments(ctx context.Context, userID, departmentID, period string) ([]Document, error) {
	out := make([]Document, 0)
	for _, doc := range m.state.documents {
		if doc.Period != period {
			continue
		}
		if userID != "" && doc.UserID != userID {
			continue
		}
		if departmentID != "" && doc.DepartmentID != departmentID {
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

func (m *memStore) UpdateDocumentSignoff(ctx context.Context, documentID, field, name string) error {
	doc, ok := m.state.documents[documentID]
	if !ok {
		return ErrDocumentNotFound
	}
	switch field {
	case SignoffReviewedBy:
		doc.ReviewedBy = name
	case SignoffApprovedBy:
		doc.ApprovedBy = name
	case SignoffDiscussedWith:
		doc.DiscussedWith = name
	case SignoffAssessedBy:
		doc.AssessedBy = name
	case SignoffFinalRatingBy:
		doc.FinalRatingBy = name
	case SignoffConfirmedBy:
		doc.ConfirmedBy = name
	default:
		return ErrUnknownSignoff
	}
	m.state.documents[documentID] = doc
	return nil
}

func (m *memStore) TaskForUpdateTx(ctx context.Context, tx Tx, taskID string) (*MainTask, error) {
	state, err := staged(tx)
	if err != nil {
		return nil, err
	}
	task, ok := state.tasks[taskID]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return &task, nil
}

func (m *memStore) CreateDocumentTx(ctx context.Context, tx Tx, doc Document) error {
	state, err := staged(tx)
	if err != nil {
		return err
	}
	state.documents[doc.ID] = doc
	return nil
}

func (m *memStore) OutputForUserTaskTx(ctx context.Context, tx Tx, userID, taskID string) (*Output, error) {
	state, err := staged(tx)
	if err != nil {
		return nil, err
	}
	for _, output := range state.outputs {
		if output.UserID == userID && output.TaskID == taskID {
			out := output
			return &out, nil
		}
	}
	return nil, ErrOutputNotFound
}

func (m *memStore) CreateOutputTx(ctx context.Context, tx Tx, output Output) error {
	state, err := staged(tx)
	if err != nil {
		return err
	}
	state.outputs[output.ID] = output
	return nil
}

func (m *memStore) CreateSubTaskTx(ctx context.Context, tx Tx, st SubTask) error {
	state, err := staged(tx)
	if err != nil {
		return err
	}
	state.subTasks[st.ID] = st
	return nil
}

func (m *memStore) StampSubTaskDocumentTx(ctx context.Context, tx Tx, outputID, documentID string) error {
	state, err := staged(tx)
	if err != nil {
		return err
	}
	for id, st := range state.subTasks {
		if st.OutputID == outputID {
			st.DocumentID = documentID
			state.subTasks[id] = st
		}
	}
	return nil
}

func (m *memStore) MarkTaskAssignedTx(ctx context.Context, tx Tx, taskID string) error {
	state, err := staged(tx)
	if err != nil {
		return err
	}
	task, ok := state.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	task.Assigned = true
	state.tasks[taskID] = task
	return nil
}

func (m *memStore) ArchiveCategoryTx(ctx context.Context, tx Tx, categoryID string) error {
	state, err := staged(tx)
	if err != nil {
		return err
	}
	category, ok := state.categories[categoryID]
	if !ok {
		return ErrCategoryNotFound
	}
	category.Status = StatusArchived
	state.categories[categoryID] = category
	return nil
}

func (m *memStore) ListTaskIDsByCategoryTx(ctx context.Context, tx Tx, categoryID string) ([]string, error) {
	state, err := staged(tx)
	if err != nil {
		return nil, err
	}
	var taskIDs []string
	for id, task := range state.tasks {
		if task.CategoryID == categoryID {
			taskIDs = append(taskIDs, id)
		}
	}
	return taskIDs, nil
}

func (m *memStore) ArchiveTaskTx(ctx context.Context, tx Tx, taskID string) error {
	state, err := staged(tx)
	if err != nil {
		return err
	}
	task, ok := state.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	task.Status = StatusArchived
	task.Assigned = false
	state.tasks[taskID] = task
	return nil
}

func (m *memStore) ArchiveSubTasksByTaskTx(ctx context.Context, tx Tx, taskID string) error {
	state, err := staged(tx)
	if err != nil {
		return err
	}
	for id, st := range state.subTasks {
		if st.TaskID == taskID {
			st.Status = StatusArchived
			state.subTasks[id] = st
		}
	}
	return nil
}

func (m *memStore) DeleteSubTasksByTaskTx(ctx context.Context, tx Tx, taskID string) error {
	state, err := staged(tx)
	if err != nil {
		return err
	}
	for id, st := range state.subTasks {
		if st.TaskID == taskID {
			delete(state.subTasks, id)
		}
	}
	return nil
}

func (m *memStore) DeleteOutputsByTaskTx(ctx context.Context, tx Tx, taskID string) error {
	state, err := staged(tx)
	if err != nil {
		return err
	}
	for id, output := range state.outputs {
		if output.TaskID == taskID {
			delete(state.outputs, id)
		}
	}
	return nil
}

func newTestService(store StoreAPI) *Service {
	return NewService(store, settings.NewService(&memSettingsStore{}))
}

func seedTask(t *testing.T, svc *Service, store *memStore, categoryName, title string) (Category, MainTask) {
	t.Helper()
	var category *Category
	for _, existing := range store.state.categories {
		if existing.Name == categoryName {
			c := existing
			category = &c
			break
		}
	}
	if category == nil {
		created, err := svc.CreateCategory(context.Background(), categoryName, FunctionTypeCore, 1)
		if err != nil {
			t.Fatalf("create category: %v", err)
		}
		category = created
	}
	task, err := svc.CreateTask(context.Background(), MainTask{CategoryID: category.ID, Title: title})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return *category, *task
}

func TestGenerateDocumentIdempotentOutputs(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, taskA := seedTask(t, svc, store, "Core Function", "Process permit applications")
	_, taskB := seedTask(t, svc, store, "Core Function", "Publish monthly report")

	first, err := svc.GenerateDocument(ctx, "user-1", "", DocumentKindIPCR, []string{taskA.ID, taskB.ID})
	if err != nil {
		t.Fatalf("first generation failed: %v", err)
	}
	if len(store.state.outputs) != 2 || len(store.state.subTasks) != 2 {
		t.Fatalf("expected 2 outputs and 2 sub-tasks, got %d/%d", len(store.state.outputs), len(store.state.subTasks))
	}
	for _, st := range store.state.subTasks {
		if st.DocumentID != first.ID {
			t.Fatalf("sub-task not stamped with document %s: %+v", first.ID, st)
		}
	}

	second, err := svc.GenerateDocument(ctx, "user-1", "", DocumentKindIPCR, []string{taskA.ID, taskB.ID})
	if err != nil {
		t.Fatalf("second generation failed: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a fresh document on regeneration")
	}
	if len(store.state.outputs) != 2 {
		t.Fatalf("regeneration duplicated outputs: %d", len(store.state.outputs))
	}
	if len(store.state.documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(store.state.documents))
	}
	for _, st := range store.state.subTasks {
		if st.DocumentID != second.ID {
			t.Fatalf("sub-task not re-stamped to new document: %+v", st)
		}
	}
}

func TestGenerateDocumentFailFastRollsBack(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, task := seedTask(t, svc, store, "Core Function", "Process permit applications")

	_, err := svc.GenerateDocument(ctx, "user-1", "", DocumentKindIPCR, []string{task.ID, "no-such-task"})
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if len(store.state.documents) != 0 {
		t.Fatalf("document persisted despite rollback: %d", len(store.state.documents))
	}
	if len(store.state.outputs) != 0 || len(store.state.subTasks) != 0 {
		t.Fatalf("outputs/sub-tasks persisted despite rollback: %d/%d",
			len(store.state.outputs), len(store.state.subTasks))
	}
}

func TestGenerateDocumentValidatesInput(t *testing.T) {
	svc := newTestService(newMemStore())
	if _, err := svc.GenerateDocument(context.Background(), "user-1", "", DocumentKindIPCR, nil); !errors.Is(err, ErrNoTasks) {
		t.Fatalf("expected ErrNoTasks, got %v", err)
	}
	if _, err := svc.GenerateDocument(context.Background(), "user-1", "", "pcr", []string{"t"}); err == nil {
		t.Fatal("expected error for unknown document kind")
	}
}

func TestArchiveCategoryCascade(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	categoryA, taskA := seedTask(t, svc, store, "Core Function", "Process permit applications")
	categoryB, taskB := seedTask(t, svc, store, "Support Function", "Maintain records")

	if _, err := svc.GenerateDocument(ctx, "user-1", "", DocumentKindIPCR, []string{taskA.ID, taskB.ID}); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if err := svc.ArchiveCategory(ctx, categoryA.ID); err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	if got := store.state.categories[categoryA.ID].Status; got != StatusArchived {
		t.Fatalf("category not archived: %s", got)
	}
	if got := store.state.tasks[taskA.ID].Status; got != StatusArchived {
		t.Fatalf("task not archived: %s", got)
	}
	for _, output := range store.state.outputs {
		if output.TaskID == taskA.ID {
			t.Fatalf("output still references archived task: %+v", output)
		}
	}
	for _, st := range store.state.subTasks {
		if st.TaskID == taskA.ID {
			t.Fatalf("sub-task still references archived task: %+v", st)
		}
	}

	// Unrelated category untouched.
	if got := store.state.categories[categoryB.ID].Status; got != StatusActive {
		t.Fatalf("unrelated category archived: %s", got)
	}
	if got := store.state.tasks[taskB.ID].Status; got != StatusActive {
		t.Fatalf("unrelated task archived: %s", got)
	}
	remaining := 0
	for _, st := range store.state.subTasks {
		if st.TaskID == taskB.ID {
			remaining++
		}
	}
	if remaining != 1 {
		t.Fatalf("unrelated sub-tasks affected, %d remain", remaining)
	}
}

func TestArchiveTaskKeepsSubTasksArchived(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, task := seedTask(t, svc, store, "Core Function", "Process permit applications")
	if _, err := svc.GenerateDocument(ctx, "user-1", "", DocumentKindIPCR, []string{task.ID}); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if err := svc.ArchiveTask(ctx, task.ID); err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if got := store.state.tasks[task.ID].Status; got != StatusArchived {
		t.Fatalf("task not archived: %s", got)
	}
	for _, st := range store.state.subTasks {
		if st.TaskID == task.ID && st.Status != StatusArchived {
			t.Fatalf("sub-task not archived: %+v", st)
		}
	}
	if len(store.state.outputs) != 0 {
		t.Fatalf("outputs not deleted: %d", len(store.state.outputs))
	}
}

func TestRecordAccomplishmentComputesScores(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, task := seedTask(t, svc, store, "Core Function", "Process permit applications")
	if _, err := svc.GenerateDocument(ctx, "user-1", "", DocumentKindIPCR, []string{task.ID}); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	var subTaskID string
	for id := range store.state.subTasks {
		subTaskID = id
	}

	if _, _, err := svc.SetTargets(ctx, subTaskID, Targets{Quantity: 100, Time: 20}); err != nil {
		t.Fatalf("set targets failed: %v", err)
	}

	updated, warnings, err := svc.RecordAccomplishment(ctx, subTaskID, Accomplishment{
		Quantity:     130,
		Time:         17, // calc = 1.15 -> 4
		Modification: 3,  // -> 3
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if updated.Quantity != 5 || updated.Efficiency != 3 || updated.Timeliness != 4 {
		t.Fatalf("unexpected scores: %+v", updated)
	}
	if updated.Average != 4.00 {
		t.Fatalf("expected average 4.00, got %v", updated.Average)
	}

	persisted := store.state.subTasks[subTaskID]
	if persisted.Average != 4.00 {
		t.Fatalf("scores not persisted: %+v", persisted)
	}
}

func TestSignoffLooseOrdering(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, task := seedTask(t, svc, store, "Core Function", "Process permit applications")
	doc, err := svc.GenerateDocument(ctx, "user-1", "", DocumentKindIPCR, []string{task.ID})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	// Confirmation may be recorded before review; ordering is not enforced.
	if _, err := svc.Signoff(ctx, doc.ID, SignoffConfirmedBy, "J. Dela Cruz"); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	updated, err := svc.Signoff(ctx, doc.ID, SignoffReviewedBy, "M. Santos")
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if updated.ConfirmedBy != "J. Dela Cruz" || updated.ReviewedBy != "M. Santos" {
		t.Fatalf("unexpected sign-offs: %+v", updated)
	}

	if _, err := svc.Signoff(ctx, doc.ID, "notarized_by", "X"); !errors.Is(err, ErrUnknownSignoff) {
		t.Fatalf("expected ErrUnknownSignoff, got %v", err)
	}
}

func TestCreateCategoryRejectsDuplicateActiveName(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	if _, err := svc.CreateCategory(ctx, "Core Function", FunctionTypeCore, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.CreateCategory(ctx, "Core Function", FunctionTypeCore, 2); !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("expected ErrDuplicateCategory, got %v", err)
	}
}
