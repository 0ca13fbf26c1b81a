package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-portal/internal/model"
	"github.com/stemsi/exstem-portal/internal/service"
	"gopkg.in/yaml.v3"
)

// examFile is one YAML document and where it came from.
type examFile struct {
	*model.Exam
	Source string
}

func loadFiles(paths []string) ([]*examFile, error) {
	var out []*examFile
	seen := make(map[uuid.UUID]string)

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		exams, err := decodeExams(f, path)
		f.Close()
		if err != nil {
			return nil, err
		}

		for _, e := range exams {
			if prev, dup := seen[e.ID]; dup {
				return nil, fmt.Errorf("%s: exam id %s already defined in %s", e.Source, e.ID, prev)
			}
			seen[e.ID] = e.Source
			out = append(out, e)
		}
	}
	return out, nil
}

// decodeExams reads every document in a multi-document YAML stream.
func decodeExams(r io.Reader, name string) ([]*examFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var out []*examFile
	for doc := 1; ; doc++ {
		var e model.Exam
		err := dec.Decode(&e)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s#%d: %w", name, doc, err)
		}

		if e.ID == uuid.Nil {
			e.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte("exstem:exam:"+e.Title))
		}
		if e.DurationMinutes == 0 {
			e.DurationMinutes = model.DefaultDurationMinutes
		}
		if err := service.ValidateExam(&e); err != nil {
			return nil, fmt.Errorf("%s#%d: %w", name, doc, err)
		}
		out = append(out, &examFile{Exam: &e, Source: fmt.Sprintf("%s#%d", name, doc)})
	}
	return out, nil
}
