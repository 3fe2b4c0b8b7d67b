package seeder

import (
	"context"
	"encoding/json"
	"fmt"

	"taste-match/internal/database"
	"taste-match/internal/domain/dna"

	"github.com/google/uuid"
)

// DemoDiner is a ready-made user with a completed profile, so a fresh
// deployment has someone to match against.
type DemoDiner struct {
	Name     string
	Industry string
	MBTI     string
	Title    string
	Slogan   string
	Tags     []string
	Vector   dna.Vector
}

var demoNamespace = uuid.MustParse("6f1c2a4e-8b7d-4e1f-9a3c-5d2e7b9c0f11")

// ID is stable across runs so seeding stays idempotent.
func (d DemoDiner) ID() uuid.UUID {
	return uuid.NewSHA1(demoNamespace, []byte(d.Name))
}

var DemoDiners = []DemoDiner{
	{
		Name:     "林小厨",
		Industry: "互联网/科技",
		MBTI:     "ENFP",
		Title:    "麻辣探险家",
		Slogan:   "无辣不欢的美食冒险家",
		Tags:     []string{"麻辣", "热闹聚会", "互联网/科技"},
		Vector:   dna.Vector{Spicy: 92, Sweet: 30, Fresh: 40, Adventurous: 88, Social: 85, Refined: 45},
	},
	{
		Name:     "素素",
		Industry: "设计/创意",
		MBTI:     "INFJ",
		Title:    "清新养生派",
		Slogan:   "用最简单的食材做最温暖的饭",
		Tags:     []string{"清淡", "安静聊天", "素食"},
		Vector:   dna.Vector{Spicy: 10, Sweet: 55, Fresh: 95, Adventurous: 35, Social: 40, Refined: 80},
	},
	{
		Name:     "吃货阿杰",
		Industry: "自由职业",
		MBTI:     "ESTP",
		Title:    "百味鉴赏家",
		Slogan:   "人生苦短，什么都要尝一尝",
		Tags:     []string{"什么都吃", "随意自在", "自由职业"},
		Vector:   dna.Vector{Spicy: 65, Sweet: 60, Fresh: 55, Adventurous: 95, Social: 70, Refined: 50},
	},
}

type DemoDinersSeeder struct{}

func (DemoDinersSeeder) Name() string { return "demo_diners" }

func (DemoDinersSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "users", "id", "name", "industry", "mbti", "balance"); err != nil {
		return err
	}
	if err := EnsureTableColumns(ctx, db, "dna_profiles", "user_id", "title", "slogan", "tags", "radar_data"); err != nil {
		return err
	}

	return database.InTx(ctx, db, func(ctx context.Context, tx database.Tx) error {
		for _, d := range DemoDiners {
			if err := d.Vector.Validate(); err != nil {
				return fmt.Errorf("%s: %w", d.Name, err)
			}
			radar, err := json.Marshal(d.Vector)
			if err != nil {
				return err
			}
			tags, err := json.Marshal(d.Tags)
			if err != nil {
				return err
			}

			id := d.ID()
			if _, err := tx.Exec(ctx,
				`INSERT INTO users (id, name, avatar_url, industry, mbti) VALUES ($1, $2, '', $3, $4)
				 ON CONFLICT (id) DO NOTHING`,
				id, d.Name, d.Industry, d.MBTI,
			); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO dna_profiles (user_id, title, slogan, tags, radar_data) VALUES ($1, $2, $3, $4, $5)
				 ON CONFLICT (user_id) DO NOTHING`,
				id, d.Title, d.Slogan, tags, radar,
			); err != nil {
				return err
			}
		}
		return nil
	})
}
