package seeders

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mmartin-estofados/storefront/app/models"
	"github.com/mmartin-estofados/storefront/app/repositories"
)

func init() {
	Register("settings", SeedSettings)
	Register("cushion_kit", SeedCushionKit)
	Register("products", SeedProducts)
}

// DefaultSettings are the starter values of the well-known setting keys.
var DefaultSettings = map[string]interface{}{
	models.SettingCategories: []map[string]string{
		{"id": "sofas", "name": "Sofás"},
		{"id": "poltronas", "name": "Poltronas"},
		{"id": "cabeceiras", "name": "Cabeceiras"},
		{"id": "almofadas", "name": "Almofadas"},
	},
	models.SettingFabrics: []string{"Linho", "Suede", "Veludo", "Couro sintético", "Chenille"},
	models.SettingUI: map[string]bool{
		"show_reviews":       true,
		"show_cushion_kit":   true,
		"show_promotions":    true,
		"whatsapp_checkout":  true,
		"maintenance_banner": false,
	},
	models.SettingPayment: map[string]interface{}{
		"methods":         []string{models.PaymentWhatsApp, models.PaymentMercadoPago, models.PaymentPix},
		"whatsapp_number": "",
	},
}

// DefaultCushionKit is the starter cushion-kit configuration.
var DefaultCushionKit = map[string]interface{}{
	"price_per_kit": 189.90,
	"pieces":        4,
	"sizes":         []string{"45x45", "50x50"},
	"colors":        []string{"Areia", "Cinza", "Terracota", "Verde oliva", "Azul petróleo"},
}

// SeedSettings creates every default setting that does not exist yet.
func SeedSettings(ctx context.Context, db *gorm.DB) (int, error) {
	repo := repositories.NewSettingRepository(db)

	created := 0
	for key, value := range DefaultSettings {
		raw, err := json.Marshal(value)
		if err != nil {
			return created, err
		}
		ok, err := repo.CreateIfMissing(ctx, key, datatypes.JSON(raw))
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// SeedCushionKit creates the cushion-kit row unless one is configured.
func SeedCushionKit(ctx context.Context, db *gorm.DB) (int, error) {
	raw, err := json.Marshal(DefaultCushionKit)
	if err != nil {
		return 0, err
	}
	ok, err := repositories.NewCushionKitRepository(db).CreateIfMissing(ctx, datatypes.JSON(raw))
	if err != nil || !ok {
		return 0, err
	}
	return 1, nil
}

type sampleProduct struct {
	product models.Product
	stock   int
	min     int
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pricePtr(s string) *decimal.Decimal {
	d := price(s)
	return &d
}

func sampleProducts() []sampleProduct {
	return []sampleProduct{
		{
			product: models.Product{
				ID:            "sofa-retratil-lisboa",
				Name:          "Sofá Retrátil Lisboa",
				Category:      "sofas",
				Description:   "Sofá retrátil e reclinável de 3 lugares com molas ensacadas.",
				Price:         price("3490.00"),
				OriginalPrice: pricePtr("3990.00"),
				Images:        datatypes.JSONSlice[string]{},
				Features:      datatypes.JSONSlice[string]{"Retrátil", "Reclinável", "Molas ensacadas"},
				Fabrics:       datatypes.JSONSlice[string]{"Linho", "Suede", "Veludo"},
				Dimensions:    "230 x 105 x 98 cm",
				Featured:      true,
				Active:        true,
				StockManaged:  true,
			},
			stock: 5,
			min:   2,
		},
		{
			product: models.Product{
				ID:           "poltrona-costela",
				Name:         "Poltrona Costela",
				Category:     "poltronas",
				Description:  "Poltrona com estrutura em madeira maciça e assento estofado.",
				Price:        price("1290.00"),
				Images:       datatypes.JSONSlice[string]{},
				Features:     datatypes.JSONSlice[string]{"Madeira maciça", "Giratória"},
				Fabrics:      datatypes.JSONSlice[string]{"Couro sintético", "Linho"},
				Dimensions:   "80 x 85 x 100 cm",
				Featured:     true,
				Active:       true,
				StockManaged: true,
			},
			stock: 8,
			min:   3,
		},
		{
			product: models.Product{
				ID:          "cabeceira-estofada-queen",
				Name:        "Cabeceira Estofada Queen",
				Category:    "cabeceiras",
				Description: "Cabeceira capitonê sob medida para camas queen.",
				Price:       price("890.00"),
				Images:      datatypes.JSONSlice[string]{},
				Features:    datatypes.JSONSlice[string]{"Capitonê", "Sob medida"},
				Fabrics:     datatypes.JSONSlice[string]{"Suede", "Veludo", "Chenille"},
				Dimensions:  "160 x 120 cm",
				Active:      true,
			},
		},
		{
			product: models.Product{
				ID:           "kit-almofadas-4",
				Name:         "Kit 4 Almofadas",
				Category:     "almofadas",
				Description:  "Kit com quatro capas de almofada e enchimento em fibra siliconada.",
				Price:        price("189.90"),
				Images:       datatypes.JSONSlice[string]{},
				Features:     datatypes.JSONSlice[string]{"Zíper invisível", "Enchimento incluso"},
				Fabrics:      datatypes.JSONSlice[string]{"Linho", "Veludo"},
				Dimensions:   "45 x 45 cm",
				Active:       true,
				IsKit:        true,
				KitPieces:    4,
				StockManaged: true,
			},
			stock: 20,
			min:   5,
		},
	}
}

// SeedProducts inserts the sample catalogue. Existing products and stock
// rows are left untouched.
func SeedProducts(ctx context.Context, db *gorm.DB) (int, error) {
	created := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, s := range sampleProducts() {
			p := s.product
			res := tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&p)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}
			created++

			if !p.StockManaged {
				continue
			}
			stock := models.Stock{ProductID: p.ID, Quantity: s.stock, MinQuantity: s.min}
			if err := tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&stock).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return created, err
}
