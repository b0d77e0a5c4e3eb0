package crew

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/psds-microservice/helpdesk-service/internal/errs"
)

type Agent struct {
	Role      string
	Goal      string
	Backstory string
	Tools     []Tool
}

func (a *Agent) systemPrompt() string {
	return fmt.Sprintf("You are %s. %s\nYour personal goal is: %s", a.Role, a.Backstory, a.Goal)
}

// Task — задание агенту. Query уходит в инструменты агента как поисковый запрос.
type Task struct {
	Description    string
	ExpectedOutput string
	Query          string
	Agent          *Agent
}

// Crew выполняет задачи последовательно; результат предыдущей задачи
// передаётся следующей как контекст. Итог crew равен результату последней.
type Crew struct {
	Agents []*Agent
	Tasks  []*Task
	model  ChatModel
}

func (c *Crew) Kickoff(ctx context.Context) (string, error) {
	if len(c.Tasks) == 0 {
		return "", fmt.Errorf("crew: no tasks")
	}
	var prev string
	for i, task := range c.Tasks {
		if task.Agent == nil {
			return "", fmt.Errorf("crew: task %d has no agent", i)
		}
		out, err := c.model.Complete(ctx, task.Agent.systemPrompt(), taskPrompt(task, prev))
		if err != nil {
			return "", fmt.Errorf("crew: task %d: %w", i, err)
		}
		prev = out
	}
	return prev, nil
}

func taskPrompt(task *Task, prevOutput string) string {
	var b strings.Builder
	b.WriteString("Current Task: ")
	b.WriteString(task.Description)
	b.WriteString("\n\nThis is the expected criteria for your final answer: ")
	b.WriteString(task.ExpectedOutput)
	if prevOutput != "" {
		b.WriteString("\n\nThis is the context you're working with:\n")
		b.WriteString(prevOutput)
	}
	for _, tool := range task.Agent.Tools {
		hits := tool.Search(task.Query)
		fmt.Fprintf(&b, "\n\nResults of the tool %q:", tool.Name())
		if len(hits) == 0 {
			b.WriteString("\nNo relevant content found.")
			continue
		}
		for i, h := range hits {
			fmt.Fprintf(&b, "\n[%d] (page %d) %s", i+1, h.Page, h.Text)
		}
	}
	b.WriteString("\n\nBegin! Answer using only the documentation above.")
	return b.String()
}

// Service собирает crew под систему документации и запускает его.
type Service struct {
	lib   *Library
	model ChatModel
	topK  int
}

func NewService(lib *Library, model ChatModel, topK int) *Service {
	return &Service{lib: lib, model: model, topK: topK}
}

func (s *Service) Systems() []string { return s.lib.Names() }

func (s *Service) HasSystem(name string) bool { return s.lib.Has(name) }

// NewCrew строит одного аналитика документации с PDF-поиском и одну задачу анализа.
func (s *Service) NewCrew(system, prompt string) (*Crew, error) {
	sys, err := s.lib.System(system)
	if err != nil {
		return nil, err
	}
	doc, err := s.lib.Document(system)
	if err != nil {
		return nil, err
	}
	title := sys.Title
	analyst := &Agent{
		Role: fmt.Sprintf("%s Documentation Analyst", capitalize(title)),
		Goal: fmt.Sprintf("Efficiently analyze the %s documentation and provide accurate, summarized answers based solely on the documentation", title),
		Backstory: fmt.Sprintf("You are an expert at quickly understanding and interpreting %s documentation. "+
			"You excel at extracting key information and presenting it in a clear, concise manner without adding any external "+
			"information or mentioning where in the document the information was found.", title),
		Tools: []Tool{NewPDFSearchTool(doc, s.topK)},
	}
	analyze := &Task{
		Description: fmt.Sprintf("Quickly analyze the relevant parts of the %s documentation and provide a summarized answer "+
			"to the following question: %s. If the question is not related to the document content, politely ask the user "+
			"to provide a question related to the %s documentation.", title, prompt, title),
		ExpectedOutput: "A concise and accurate answer to the user's question, based solely on the system documentation. " +
			"The answer should be clear, to the point, and not include any information not present in the documentation. " +
			"Do not mention where in the document the information was found unless if the question specifically asks for that information. " +
			"If the information is not found or if the question is unrelated to the document, politely ask the user to provide " +
			"a question related to the system documentation.",
		Query: prompt,
		Agent: analyst,
	}
	return &Crew{Agents: []*Agent{analyst}, Tasks: []*Task{analyze}, model: s.model}, nil
}

// Ask возвращает ответ crew. Ошибки модели оборачиваются в errs.ErrGeneration.
func (s *Service) Ask(ctx context.Context, system, prompt string) (string, error) {
	c, err := s.NewCrew(system, prompt)
	if err != nil {
		return "", err
	}
	out, err := c.Kickoff(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "crew: kickoff failed", "system", system, "error", err)
		return "", fmt.Errorf("%w: %v", errs.ErrGeneration, err)
	}
	return out, nil
}

// capitalize: первая буква заглавная, остальные строчные.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = []rune(strings.ToUpper(string(r[0])))[0]
	return string(r)
}
