package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/rwonjong94/anchormoms-web-sub002/core"
	"github.com/rwonjong94/anchormoms-web-sub002/core/roadmap"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf *core.Config
	out  io.Writer
	db   *sql.DB // nil with the memory store
	svc  *roadmap.Service
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                       - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  init -student ID -start-year Y -grade G      - create an empty roadmap")
	fmt.Fprintln(cli.out, "  show -student ID [-years N]                  - print the effective grid")
	fmt.Fprintln(cli.out, "  diff -student ID [-years N]                  - diff the base calendar against the effective grid")
	fmt.Fprintln(cli.out, "  export -student ID [-years N] [-out FILE]    - write the effective grid as an xlsx workbook")
	fmt.Fprintln(cli.out, "  token -subject ID [-name NAME] [-email EMAIL] - print an editor API token")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	initCmd := cli.newFlagSet("init")
	initStudent := initCmd.String("student", "", "The student's id.")
	initYear := initCmd.Int("start-year", 0, "The first academic year of the calendar.")
	initGrade := initCmd.String("grade", "", "The student's grade in the first academic year.")
	initPromotion := initCmd.Int("promotion-month", 0, "The month the student moves up a grade (optional).")

	showCmd := cli.newFlagSet("show")
	showStudent := showCmd.String("student", "", "The student's id.")
	showYears := showCmd.Int("years", cli.conf.Roadmap.DefaultYears, "Number of academic years.")

	diffCmd := cli.newFlagSet("diff")
	diffStudent := diffCmd.String("student", "", "The student's id.")
	diffYears := diffCmd.Int("years", cli.conf.Roadmap.DefaultYears, "Number of academic years.")

	exportCmd := cli.newFlagSet("export")
	exportStudent := exportCmd.String("student", "", "The student's id.")
	exportYears := exportCmd.Int("years", cli.conf.Roadmap.DefaultYears, "Number of academic years.")
	exportOut := exportCmd.String("out", "", "The workbook file. Standard output when empty.")

	tokenCmd := cli.newFlagSet("token")
	tokenSubject := tokenCmd.String("subject", "", "The editor's id.")
	tokenName := tokenCmd.String("name", "", "The editor's name.")
	tokenEmail := tokenCmd.String("email", "", "The editor's email.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "init":
		if err := cli.parse(initCmd, args[2:]); err != nil {
			return err
		}
		if *initStudent == "" || *initYear == 0 || *initGrade == "" {
			initCmd.Usage()
			return errHelp
		}
		return cli.initRoadmap(*initStudent, roadmap.BaseSettings{
			StartAcademicYear:   *initYear,
			StartGrade:          *initGrade,
			GradePromotionMonth: *initPromotion,
		})

	case "show":
		if err := cli.parse(showCmd, args[2:]); err != nil {
			return err
		}
		if *showStudent == "" {
			showCmd.Usage()
			return errHelp
		}
		return cli.show(*showStudent, *showYears)

	case "diff":
		if err := cli.parse(diffCmd, args[2:]); err != nil {
			return err
		}
		if *diffStudent == "" {
			diffCmd.Usage()
			return errHelp
		}
		return cli.diff(*diffStudent, *diffYears)

	case "export":
		if err := cli.parse(exportCmd, args[2:]); err != nil {
			return err
		}
		if *exportStudent == "" {
			exportCmd.Usage()
			return errHelp
		}
		return cli.export(*exportStudent, *exportYears, *exportOut)

	case "token":
		if err := cli.parse(tokenCmd, args[2:]); err != nil {
			return err
		}
		if *tokenSubject == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(core.Person{ID: *tokenSubject, Name: *tokenName, Email: *tokenEmail})

	default:
		cli.printUsage()
		return errHelp
	}
}
