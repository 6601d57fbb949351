package nyms

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/ledgerload/internal/common"
	"github.com/dmitrijs2005/ledgerload/internal/ledger/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const getQuery = `(?s)^SELECT\s+dest,\s*verkey,\s*role,\s*created_by,\s*seq_no,\s*txn_time\s+FROM\s+nyms\s+WHERE\s+dest\s*=\s*\$1\s*$`

func TestGet_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"dest", "verkey", "role", "created_by", "seq_no", "txn_time"}).
		AddRow("did-1", "~vk", "", "steward", int64(3), int64(1700000000))
	mock.ExpectQuery(getQuery).WithArgs("did-1").WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "did-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	want := models.Nym{Dest: "did-1", Verkey: "~vk", CreatedBy: "steward", SeqNo: 3, TxnTime: 1700000000}
	if *got != want {
		t.Fatalf("unexpected nym: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(getQuery).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGet_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(getQuery).WithArgs("did-1").WillReturnError(errors.New("db down"))

	_, err := repo.Get(context.Background(), "did-1")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpsert_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+nyms\s*\(dest,\s*verkey,\s*role,\s*created_by,\s*seq_no,\s*txn_time\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*ON\s+CONFLICT\s*\(dest\)\s*DO\s+UPDATE.*$`
	mock.ExpectExec(q).
		WithArgs("did-1", "~vk2", "", "steward", int64(9), int64(1700000100)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &models.Nym{
		Dest: "did-1", Verkey: "~vk2", CreatedBy: "steward", SeqNo: 9, TxnTime: 1700000100,
	})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+nyms`).WillReturnError(errors.New("constraint"))

	err := repo.Upsert(context.Background(), &models.Nym{Dest: "did-1"})
	if err == nil || !regexp.MustCompile(`db error: .*constraint`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+COUNT\(\*\)\s+FROM\s+nyms`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(4)))

	n, err := repo.Count(context.Background())
	if err != nil || n != 4 {
		t.Fatalf("Count = %d, %v", n, err)
	}
}
