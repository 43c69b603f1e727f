// 写入演示数据：一个作业、两名参与者、两个出题团队及其评审映射。
//
// 用法: go run scripts/seed_demo.go -fixture scripts/demo_fixture.yaml

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"peer_quiz_backend/internal/config"
	"peer_quiz_backend/internal/model"
	"peer_quiz_backend/pkg/database"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type fixture struct {
	AssignmentID uint `yaml:"assignment_id"`
	Participants []struct {
		UserID uint   `yaml:"user_id"`
		Handle string `yaml:"handle"`
	} `yaml:"participants"`
	Teams []struct {
		Name string `yaml:"name"`
		Quiz *struct {
			Name      string `yaml:"name"`
			Questions []struct {
				Txt     string `yaml:"txt"`
				Type    string `yaml:"type"`
				Choices []struct {
					Txt     string `yaml:"txt"`
					Correct bool   `yaml:"correct"`
				} `yaml:"choices"`
			} `yaml:"questions"`
		} `yaml:"quiz"`
	} `yaml:"teams"`
	Reviews []struct {
		Reviewer string `yaml:"reviewer"`
		Team     string `yaml:"team"`
	} `yaml:"reviews"`
}

func main() {
	configDir := flag.String("config", "configs", "配置文件目录")
	fixturePath := flag.String("fixture", "scripts/demo_fixture.yaml", "演示数据文件")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	data, err := os.ReadFile(*fixturePath)
	if err != nil {
		log.Fatalf("无法读取演示数据: %v", err)
	}
	var fx fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		log.Fatalf("解析演示数据失败: %v", err)
	}

	db, err := database.InitDB(&cfg.Database, true)
	if err != nil {
		log.Fatalf("数据库初始化失败: %v", err)
	}

	if err := db.Transaction(func(tx *gorm.DB) error { return seed(tx, &fx) }); err != nil {
		log.Fatalf("写入演示数据失败: %v", err)
	}
	log.Println("演示数据写入完成")
}

func seed(tx *gorm.DB, fx *fixture) error {
	participants := make(map[string]uint, len(fx.Participants))
	for _, p := range fx.Participants {
		row := model.Participant{UserID: p.UserID, ParentID: fx.AssignmentID, Handle: p.Handle}
		if err := tx.Where(model.Participant{UserID: p.UserID, ParentID: fx.AssignmentID}).
			FirstOrCreate(&row).Error; err != nil {
			return err
		}
		participants[p.Handle] = row.ID
	}

	teams := make(map[string]uint, len(fx.Teams))
	for _, t := range fx.Teams {
		team := model.Team{Name: t.Name, ParentID: fx.AssignmentID}
		if err := tx.Create(&team).Error; err != nil {
			return err
		}
		teams[t.Name] = team.ID
		if t.Quiz == nil {
			continue
		}

		quiz := model.Questionnaire{Name: t.Quiz.Name, InstructorID: team.ID, Type: model.QuizQuestionnaireType}
		if err := tx.Create(&quiz).Error; err != nil {
			return err
		}
		for i, q := range t.Quiz.Questions {
			qt, err := model.ParseQuestionType(q.Type)
			if err != nil {
				return err
			}
			question := model.Question{QuestionnaireID: quiz.ID, Txt: q.Txt, Type: qt, Seq: i + 1}
			for _, c := range q.Choices {
				question.Choices = append(question.Choices, model.QuizQuestionChoice{Txt: c.Txt, IsCorrect: c.Correct})
			}
			if err := tx.Create(&question).Error; err != nil {
				return err
			}
		}
	}

	for _, r := range fx.Reviews {
		reviewerID, ok := participants[r.Reviewer]
		if !ok {
			return fmt.Errorf("unknown reviewer %q", r.Reviewer)
		}
		teamID, ok := teams[r.Team]
		if !ok {
			return fmt.Errorf("unknown team %q", r.Team)
		}
		m := model.ResponseMap{
			Type:             model.ReviewResponseMapType,
			ReviewerID:       reviewerID,
			RevieweeID:       teamID,
			ReviewedObjectID: teamID,
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
	}
	return nil
}
