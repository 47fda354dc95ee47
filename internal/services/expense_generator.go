package services

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"expense-ledger/internal/models"

	"github.com/shopspring/decimal"
)

// Merchant is a payee the generator draws sample expenses from
type Merchant struct {
	Name     string
	Category models.Category
}

type expenseGenerator struct {
	merchantPool []Merchant
	rng          *rand.Rand
}

// NewExpenseGenerator creates a generator of realistic sample expenses
func NewExpenseGenerator() ExpenseGeneratorInterface {
	return newExpenseGenerator(rand.New(rand.NewSource(time.Now().UnixNano())))
}

func newExpenseGenerator(rng *rand.Rand) *expenseGenerator {
	return &expenseGenerator{
		merchantPool: initializeMerchantPool(),
		rng:          rng,
	}
}

func initializeMerchantPool() []Merchant {
	return []Merchant{
		// Food
		{"Swiggy", models.CategoryFood},
		{"Zomato", models.CategoryFood},
		{"BigBasket", models.CategoryFood},
		{"Local kirana store", models.CategoryFood},
		{"Office canteen", models.CategoryFood},
		{"Chai point", models.CategoryFood},

		// Transport
		{"Uber", models.CategoryTransport},
		{"Ola", models.CategoryTransport},
		{"Metro card recharge", models.CategoryTransport},
		{"Indian Oil petrol pump", models.CategoryTransport},
		{"Rapido", models.CategoryTransport},

		// Entertainment
		{"PVR Cinemas", models.CategoryEntertainment},
		{"BookMyShow", models.CategoryEntertainment},
		{"Netflix subscription", models.CategoryEntertainment},
		{"Spotify subscription", models.CategoryEntertainment},

		// Utilities
		{"Electricity bill", models.CategoryUtilities},
		{"Water bill", models.CategoryUtilities},
		{"Broadband bill", models.CategoryUtilities},
		{"Mobile recharge", models.CategoryUtilities},
		{"Gas cylinder", models.CategoryUtilities},

		// Shopping
		{"Amazon", models.CategoryShopping},
		{"Flipkart", models.CategoryShopping},
		{"Myntra", models.CategoryShopping},
		{"Decathlon", models.CategoryShopping},

		// Health
		{"Apollo Pharmacy", models.CategoryHealth},
		{"Doctor consultation", models.CategoryHealth},
		{"Gym membership", models.CategoryHealth},
		{"Diagnostic lab", models.CategoryHealth},

		// Other
		{"Laundry", models.CategoryOther},
		{"Gift", models.CategoryOther},
		{"Donation", models.CategoryOther},
	}
}

func (g *expenseGenerator) GetMerchantPool() []Merchant {
	return g.merchantPool
}

func (g *expenseGenerator) SelectRandomMerchant() Merchant {
	return g.merchantPool[g.rng.Intn(len(g.merchantPool))]
}

// GenerateAmount generates a realistic amount for the category
func (g *expenseGenerator) GenerateAmount(category models.Category) decimal.Decimal {
	minValue, maxValue := g.getAmountRange(category)
	amount := minValue + g.rng.Float64()*(maxValue-minValue)
	return decimal.NewFromFloat(amount).Round(models.AmountDecimalPlaces)
}

func (g *expenseGenerator) getAmountRange(category models.Category) (float64, float64) {
	ranges := map[models.Category][2]float64{
		models.CategoryFood:          {40.00, 1500.00},
		models.CategoryTransport:     {30.00, 800.00},
		models.CategoryEntertainment: {150.00, 1200.00},
		models.CategoryUtilities:     {200.00, 3000.00},
		models.CategoryShopping:      {300.00, 5000.00},
		models.CategoryHealth:        {100.00, 2500.00},
	}

	if r, exists := ranges[category]; exists {
		return r[0], r[1]
	}
	return 50.00, 500.00
}

// GenerateDate returns a random calendar date in [startDate, endDate]
func (g *expenseGenerator) GenerateDate(startDate, endDate time.Time) models.Date {
	start := models.DateOf(startDate)
	days := int(models.DateOf(endDate).Time.Sub(start.Time).Hours() / 24)
	if days <= 0 {
		return start
	}
	return models.DateOf(start.Time.AddDate(0, 0, g.rng.Intn(days+1)))
}

// GenerateExpenses builds count expenses dated within the range, oldest first.
// The expenses are not persisted.
func (g *expenseGenerator) GenerateExpenses(startDate, endDate time.Time, count int) []*models.Expense {
	expenses := make([]*models.Expense, 0, count)
	for i := 0; i < count; i++ {
		merchant := g.SelectRandomMerchant()
		expenses = append(expenses, &models.Expense{
			Amount:      g.GenerateAmount(merchant.Category),
			Category:    merchant.Category,
			Description: fmt.Sprintf("%s #%d", merchant.Name, g.rng.Intn(9000)+1000),
			Date:        g.GenerateDate(startDate, endDate),
		})
	}

	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[i].Date.Time.Before(expenses[j].Date.Time)
	})
	return expenses
}
