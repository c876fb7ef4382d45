package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
)

// stepOrdinalSQL maps current_step to its position so updates can refuse
// to move a run backwards.
const stepOrdinalSQL = `case current_step
		when 'git_clone' then 0
		when 'install_deps' then 1
		when 'test_execution' then 2
		when 'processing_results' then 3
		when 'completed' then 4
	end`

type TestRunSQLStore struct {
	rdb, rwdb *sql.DB
}

func NewTestRunSQLStore(rdb, rwdb *sql.DB) *TestRunSQLStore {
	return &TestRunSQLStore{rdb, rwdb}
}

func (store *TestRunSQLStore) CreateTestRun(
	ctx context.Context,
	projectID int64,
	userID *int64,
	repositoryURL *string,
	branch string,
) (*TestRun, error) {
	r := &TestRun{
		TestRunProjectID: projectID,
		TestRunUserID:    userID,
		RepositoryURL:    repositoryURL,
		Branch:           branch,
		Status:           StatusPending,
		CurrentStep:      StepGitClone,
		CreatedOn:        time.Now().UTC().Truncate(time.Microsecond),
	}
	// created_on is the start of execution_time and needs sub-second precision
	query := `insert into test_runs (
		test_run_project_id,
		test_run_user_id,
		repository_url,
		branch,
		status,
		current_step,
		created_on
	)
	values ($1, $2, $3, $4, $5, $6, $7)
	returning test_run_id`
	if err := sqlscan.Get(
		ctx, store.rwdb, r, query,
		r.TestRunProjectID,
		r.TestRunUserID,
		r.RepositoryURL,
		r.Branch,
		r.Status,
		r.CurrentStep,
		dbTime(r.CreatedOn),
	); err != nil {
		return nil, err
	}
	return r, nil
}

func (store *TestRunSQLStore) ReadTestRunByID(ctx context.Context, id int64) (*TestRun, error) {
	r := new(TestRun)
	query := `select r.*, p.name as project_name
	from test_runs r
	join projects p
	on r.test_run_project_id = p.project_id
	where r.test_run_id = $1`
	if err := sqlscan.Get(ctx, store.rdb, r, query, id); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateTestRunStep records the step a run is entering. started_on is set
// once, on the first step.
func (store *TestRunSQLStore) UpdateTestRunStep(
	ctx context.Context,
	id int64,
	status TestRunStatus,
	step TestRunStep,
	startedOn time.Time,
) error {
	query := `update test_runs
	set status = $1,
		current_step = $2,
		started_on = coalesce(started_on, $3)
	where test_run_id = $4
		and status not in ('passed', 'failed')
		and ` + stepOrdinalSQL + ` <= $5`
	res, err := store.rwdb.ExecContext(
		ctx, query,
		status,
		step,
		dbTime(startedOn),
		id,
		step.Ordinal(),
	)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (store *TestRunSQLStore) UpdateTestRunProjectType(
	ctx context.Context,
	id int64,
	projectType string,
) error {
	query := `update test_runs
	set project_type = $1
	where test_run_id = $2`
	_, err := store.rwdb.ExecContext(ctx, query, projectType, id)
	return err
}

// CompleteTestRun moves a run to a terminal status and the completed step.
func (store *TestRunSQLStore) CompleteTestRun(
	ctx context.Context,
	id int64,
	status TestRunStatus,
	result *string,
	executionTime float64,
) error {
	query := `update test_runs
	set status = $1,
		current_step = $2,
		result = $3,
		execution_time = $4
	where test_run_id = $5
		and status not in ('passed', 'failed')`
	res, err := store.rwdb.ExecContext(
		ctx, query,
		status,
		StepCompleted,
		result,
		executionTime,
		id,
	)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// FailUnfinishedTestRuns fails every run still pending or running. It is
// meant for startup, when no worker can own those runs anymore.
func (store *TestRunSQLStore) FailUnfinishedTestRuns(ctx context.Context, result string) (int64, error) {
	query := `update test_runs
	set status = $1,
		current_step = $2,
		result = $3
	where status in ('pending', 'running')`
	res, err := store.rwdb.ExecContext(ctx, query, StatusFailed, StepCompleted, result)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (store *TestRunSQLStore) ListProjectTestRuns(
	ctx context.Context,
	projectID, limit int64,
) ([]TestRun, error) {
	query := `select r.*, p.name as project_name
	from test_runs r
	join projects p
	on r.test_run_project_id = p.project_id
	where r.test_run_project_id = $1
	order by r.created_on desc, r.test_run_id desc
	limit $2`
	runs := make([]TestRun, 0)
	err := sqlscan.Select(ctx, store.rdb, &runs, query, projectID, limit)
	return runs, err
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidTransition
	}
	return nil
}
