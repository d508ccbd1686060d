package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/term"

	echoapi "github.com/rwonjong94/anchormoms-web-sub002/apps/api/echo"
	"github.com/rwonjong94/anchormoms-web-sub002/core"
	"github.com/rwonjong94/anchormoms-web-sub002/core/roadmap"
	exportsvc "github.com/rwonjong94/anchormoms-web-sub002/services/export"
)

var isTerminalFunc = term.IsTerminal // mockable

func (cli *commandLine) initRoadmap(studentID string, base roadmap.BaseSettings) error {
	validate, _ := core.NewValidator()
	data := roadmap.CreateRequest{StudentID: studentID, Base: base}
	if err := data.Validate(validate); err != nil {
		return err
	}
	if err := cli.svc.Create(context.Background(), data.StudentID, data.Base); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "roadmap created for %s\n", data.StudentID)
	return nil
}

func (cli *commandLine) show(studentID string, years int) error {
	sess, err := cli.svc.Preview(context.Background(), studentID, years)
	if err != nil {
		return err
	}

	mark := func(v string, overridden bool) string {
		if overridden {
			return v + "*"
		}
		return v
	}
	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tYEAR\tGRADE\tMONTHS\tSUBJECT\tTHINKING\tGIFTED\tCONTEST\tARITHMETIC")
	for _, grp := range sess.View().Groups {
		fmt.Fprintf(w, "%s\t%d\t%s\t%d-%d\t%s\t%s\t%s\t%s\t%s\n",
			grp.Key, grp.AcademicYear, grp.GradeLabel, grp.Months[0], grp.Months[2],
			mark(grp.Subject, grp.Overridden.Subject),
			mark(grp.Thinking, grp.Overridden.ThinkingType || grp.Overridden.ThinkingLevel),
			grp.Gifted, grp.Contest, grp.Arithmetic,
		)
	}
	return w.Flush()
}

// gridLines renders one line per group and track, for diffing.
func gridLines(groups []roadmap.GroupView) []string {
	lines := make([]string, 0, len(groups)*len(roadmap.AllTracks))
	for _, grp := range groups {
		for _, tr := range roadmap.AllTracks {
			lines = append(lines, fmt.Sprintf("%s %s: %s\n", grp.Key, tr, grp.Value(tr)))
		}
	}
	return lines
}

func (cli *commandLine) diff(studentID string, years int) error {
	sess, err := cli.svc.Preview(context.Background(), studentID, years)
	if err != nil {
		return err
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        gridLines(sess.BaseView()),
		B:        gridLines(sess.View().Groups),
		FromFile: "base",
		ToFile:   "effective",
		Context:  0,
	})
	if err != nil {
		return errors.Wrap(err, "diffing grids")
	}
	if diff == "" {
		fmt.Fprintln(cli.out, "no overrides")
		return nil
	}
	fmt.Fprint(cli.out, diff)
	return nil
}

func (cli *commandLine) export(studentID string, years int, out string) error {
	sess, err := cli.svc.Preview(context.Background(), studentID, years)
	if err != nil {
		return err
	}

	if out == "" {
		if f, ok := cli.out.(*os.File); ok && isTerminalFunc(int(f.Fd())) {
			return errors.New("refusing to write a workbook to a terminal, use -out")
		}
		return exportsvc.WriteRoadmap(cli.out, sess.View())
	}

	f, err := os.Create(out)
	if err != nil {
		return errors.Wrap(err, "creating workbook file")
	}
	if err = exportsvc.WriteRoadmap(f, sess.View()); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return errors.Wrap(err, "closing workbook file")
	}
	fmt.Fprintf(cli.out, "%s written\n", out)
	return nil
}

func (cli *commandLine) token(editor core.Person) error {
	token, err := echoapi.GenerateToken(cli.conf.SecretKey, echoapi.NewClaims(cli.conf, editor))
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, strings.TrimSpace(token))
	return nil
}
