package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/limaJavier/csptimetabling/pkg/model"

	"github.com/samber/lo"
)

const (
	executablePath             = "../../bin/timetable"
	satisfiableTestDirectory   = "../../test/satisfiable/"
	unsatisfiableTestDirectory = "../../test/unsatisfiable/"
	timeBudget                 = "60s"
)

type StrategyType int

const (
	backtracking StrategyType = iota
	iterative
	parallel
	satGini
)

type ResultType int

const (
	solved ResultType = iota
	unsatisfiable
	timeout
)

var (
	strategyTypes = map[StrategyType]string{
		backtracking: "backtracking",
		iterative:    "iterative",
		parallel:     "parallel",
		satGini:      "sat",
	}
	resultTypes = map[ResultType]string{
		solved:        "solved",
		unsatisfiable: "unsatisfiable",
		timeout:       "timeout",
	}
)

type TestMetadata struct {
	Name        string
	Satisfiable bool
	TimeSlots   int
	Subjects    int
	Groups      int
	Lecturers   int
	Halls       int
	Sessions    int
	Values      int
}

type BenchmarkResult struct {
	Strategy      StrategyType
	Test          TestMetadata
	Duration      int64
	Memory        float32
	CpuPercentage int64
	Result        ResultType
}

func main() {
	tests := getTests()
	strategies := getStrategies()
	results := make([]BenchmarkResult, 0, len(tests)*len(strategies))

	for _, test := range tests {
		for _, strategy := range strategies {
			fmt.Printf("Benchmarking test \"%v\" with strategy \"%v\"\n", test.Name, strategyTypes[strategy])

			duration, maxMemory, cpuPercentage, result := measure(strategy, test.Name)
			if expected := test.Satisfiable; result != timeout && expected != (result == solved) {
				log.Fatalf("strategy \"%v\" reported \"%v\" for test \"%v\"", strategyTypes[strategy], resultTypes[result], test.Name)
			}

			results = append(results, BenchmarkResult{
				Strategy:      strategy,
				Test:          test,
				Duration:      duration,
				Memory:        maxMemory,
				CpuPercentage: cpuPercentage,
				Result:        result,
			})
		}
	}

	toCsv(results)
}

func getTests() []TestMetadata {
	tests := make([]TestMetadata, 0)
	for _, tuple := range lo.Zip2([]string{satisfiableTestDirectory, unsatisfiableTestDirectory}, []bool{true, false}) {
		directory, satisfiable := tuple.A, tuple.B
		testFiles, err := os.ReadDir(directory)
		if err != nil {
			log.Fatalf("cannot read directory: %v", err)
		}

		for _, file := range testFiles {
			filename := directory + file.Name()
			tests = append(tests, testMetadata(filename, satisfiable))
		}
	}

	return tests
}

func testMetadata(filename string, satisfiable bool) TestMetadata {
	input, err := model.InputFromFile(filename)
	if err != nil {
		log.Fatalf("cannot parse input file: %v", err)
	}
	domainModel := model.BuildDomainModel(input)
	values, _, _ := domainModel.DomainSizes()

	return TestMetadata{
		Name:        filename,
		Satisfiable: satisfiable,
		TimeSlots:   len(input.TimeSlots),
		Subjects:    len(input.Subjects),
		Groups:      len(input.Groups),
		Lecturers:   len(input.Lecturers),
		Halls:       len(input.Halls),
		Sessions:    len(domainModel.Variables),
		Values:      values,
	}
}

func getStrategies() []StrategyType {
	return []StrategyType{backtracking, iterative, parallel, satGini}
}

func measure(strategy StrategyType, testFile string) (duration int64, maxMemory float32, cpuPercentage int64, result ResultType) {
	cmd := exec.Command("/usr/bin/time", "-v", executablePath, "solve", "--strategy", strategyTypes[strategy], "--time-budget", timeBudget, "--file", testFile)

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stdErr bytes.Buffer
	cmd.Stderr = &stdErr

	cmd.Run()
	result = exitResult(cmd.ProcessState.ExitCode())
	if result < 0 {
		log.Fatalf("an error occurred during the execution \"timetable\" at test \"%v\" using strategy \"%v\": %v\n", testFile, strategyTypes[strategy], stdErr.String())
	}

	splits := strings.Split(stdErr.String(), "\n")
	getLine := func(substr string) string {
		line, ok := lo.Find(splits, func(line string) bool {
			return strings.Contains(strings.ToLower(line), substr)
		})
		if !ok {
			log.Fatalf("Substring \"%v\" could not be found", substr)
		}
		return line
	}

	duration = parseDurationLine(getLine("wall clock"))
	maxMemory = parseMemoryLine(getLine("maximum resident set size"))
	cpuPercentage = parseCpuPercentageLine(getLine("percent of cpu"))

	return duration, maxMemory, cpuPercentage, result
}

// exitResult maps the timetable exit code to a result, or -1 for failures
func exitResult(exitCode int) ResultType {
	switch exitCode {
	case 10:
		return solved
	case 20:
		return unsatisfiable
	case 30:
		return timeout
	default:
		return -1
	}
}

func toCsv(results []BenchmarkResult) {
	file, err := os.Create("benchmark_results.csv")
	if err != nil {
		log.Panicf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Strategy", "Test", "Satisfiable", "TimeSlots", "Subjects", "Groups", "Lecturers", "Halls", "Sessions", "Values", "Duration(ms)", "Memory(MB)", "CPU(%)", "Result"}
	if err := writer.Write(header); err != nil {
		log.Panicf("cannot write CSV header: %v", err)
	}

	for _, result := range results {
		record := []string{
			strategyTypes[result.Strategy],
			result.Test.Name,
			fmt.Sprintf("%v", result.Test.Satisfiable),
			fmt.Sprintf("%d", result.Test.TimeSlots),
			fmt.Sprintf("%d", result.Test.Subjects),
			fmt.Sprintf("%d", result.Test.Groups),
			fmt.Sprintf("%d", result.Test.Lecturers),
			fmt.Sprintf("%d", result.Test.Halls),
			fmt.Sprintf("%d", result.Test.Sessions),
			fmt.Sprintf("%d", result.Test.Values),
			fmt.Sprintf("%d", result.Duration),
			fmt.Sprintf("%.1f", result.Memory),
			fmt.Sprintf("%d", result.CpuPercentage),
			resultTypes[result.Result],
		}
		if err := writer.Write(record); err != nil {
			log.Panicf("cannot write CSV record: %v", err)
		}
	}
}

func parseDurationLine(line string) int64 {
	durationStr := strings.Split(line, "(h:mm:ss or m:ss):")[1][1:]
	return parseDuration(durationStr)
}

func parseDuration(durationStr string) int64 {
	parts := strings.Split(durationStr, ":")
	secondsStr := parts[len(parts)-1]
	secondsParts := strings.Split(secondsStr, ".")

	var duration int64
	if len(parts) == 3 { // h:mm:ss
		hours := lo.Must(strconv.Atoi(parts[0]))
		minutes := lo.Must(strconv.Atoi(parts[1]))
		seconds := lo.Must(strconv.Atoi(secondsParts[0]))
		hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))
		duration = int64(hours*3600+minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
	} else if len(parts) == 2 { // m:ss
		minutes := lo.Must(strconv.Atoi(parts[0]))
		seconds := lo.Must(strconv.Atoi(secondsParts[0]))
		hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))
		duration = int64(minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
	} else {
		log.Fatalf("unexpected duration format: %v", durationStr)
	}
	return duration
}

func parseMemoryLine(line string) float32 {
	memoryStr := strings.Split(line, ":")[1][1:]
	return float32(lo.Must(strconv.ParseFloat(memoryStr, 32))) / 1024
}

func parseCpuPercentageLine(line string) int64 {
	percentageStr := strings.Split(line, ":")[1][1:]
	percentageStr = percentageStr[:len(percentageStr)-1]
	return int64(lo.Must(strconv.Atoi(percentageStr)))
}
