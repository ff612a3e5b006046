package score

import (
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"log"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists finished-play results, keyed by a hash of the chart
// body so edits to the chart invalidate old records.
type Store struct {
	db *sql.DB
}

type Record struct {
	Sum        string
	Rate       float64
	Counts     map[string]int64
	TotalError int64 // nanoseconds
}

// Hash identifies a chart by its raw source text.
func Hash(body []byte) string {
	sum := sha256.Sum256(body)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (s *Store) Init() error {
	db, err := sql.Open("sqlite3", "./scores.db")
	if nil != err {
		return err
	}

	initStatement := `
	create table if not exists plays
	  (
		  id integer not null primary key,
		  sum text,
		  rate real,
		  counts text,
		  total_error integer
	  );
	`
	_, err = db.Exec(initStatement)
	if nil != err {
		return err
	}

	s.db = db
	return nil
}

func (s *Store) Deinit() {
	if nil != s.db {
		s.db.Close()
	}
}

func (s *Store) Save(sum string, rate float64, t *Tally) {
	counts, err := json.Marshal(t.Counts)
	if nil != err {
		log.Println("unable to marshal counts", err)
		return
	}
	_, err = s.db.Exec("insert into plays(sum, rate, counts, total_error) values(?, ?, ?, ?)",
		sum, rate, counts, int64(t.TotalError))
	if nil != err {
		log.Println("unable to save play", err)
	}
}

func (s *Store) Load(sum string) []Record {
	records := []Record{}
	rows, err := s.db.Query("select sum, rate, counts, total_error from plays where sum = ?", sum)
	if nil != err && err != sql.ErrNoRows {
		log.Println("unable to load plays", err)
		return records
	}
	defer rows.Close()
	for rows.Next() {
		var r Record
		var counts []byte
		rows.Scan(&r.Sum, &r.Rate, &counts, &r.TotalError)
		if err := json.Unmarshal(counts, &r.Counts); nil != err {
			log.Println("unable to unmarshal play counts")
			continue
		}
		records = append(records, r)
	}
	return records
}
